// Package predict derives exam-question predictions from extracted question
// text, preferring an external inference adapter and guaranteeing a
// deterministic local fallback.
package predict

import (
	"context"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

// Engine selects and chains prediction sources. The adapter is optional; the
// fallback is not. Adapter failures are absorbed here: Predict always
// succeeds and its caller never learns which source answered beyond the
// returned content.
type Engine struct {
	adapter  Source
	fallback Source
	logger   logger.Logger
}

func NewEngine(adapter Source, fallback Source, log logger.Logger) *Engine {
	return &Engine{
		adapter:  adapter,
		fallback: fallback,
		logger:   log,
	}
}

// Predict runs the adapter when one is configured and questions exist,
// silently falling back to the heuristic source otherwise or on any adapter
// failure. Every record is normalized regardless of its source.
func (e *Engine) Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) *models.PredictionSet {
	var set *models.PredictionSet

	if e.adapter != nil && len(questions) > 0 {
		adapterSet, err := e.adapter.Predict(ctx, questions, subject, examName)
		if err != nil {
			e.logger.Warn("inference adapter failed, using local fallback",
				logger.String("subject", subject),
				logger.Error(err),
			)
		} else {
			set = adapterSet
		}
	}

	if set == nil {
		// The heuristic source cannot fail.
		set, _ = e.fallback.Predict(ctx, questions, subject, examName)
	}

	Normalize(set)
	return set
}

// Normalize forces every prediction field into its domain, whatever the
// upstream source produced: probability clamped to [0,1], difficulty and
// section defaulted when unrecognized, empty type and topic filled in,
// sequential ids assigned.
func Normalize(set *models.PredictionSet) {
	for i := range set.Predictions {
		p := &set.Predictions[i]
		p.ID = i + 1

		if p.Probability < 0 {
			p.Probability = 0
		} else if p.Probability > 1 {
			p.Probability = 1
		}

		switch p.Difficulty {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			p.Difficulty = models.DifficultyMedium
		}

		switch p.Section {
		case models.SectionA, models.SectionB, models.SectionC:
		default:
			p.Section = models.SectionA
		}

		if p.Type == "" {
			p.Type = models.TypeLongAnswer
		}
		if p.Topic == "" {
			p.Topic = "General"
		}
	}

	if len(set.Summary) == 0 {
		seen := make(map[string]bool)
		for _, p := range set.Predictions {
			if !seen[p.Topic] {
				seen[p.Topic] = true
				set.Summary = append(set.Summary, p.Topic)
			}
		}
	}
}
