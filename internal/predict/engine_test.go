package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

type fakeSource struct {
	set   *models.PredictionSet
	err   error
	calls int
}

func (f *fakeSource) Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) (*models.PredictionSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

func TestEngineUsesAdapter(t *testing.T) {
	adapter := &fakeSource{set: &models.PredictionSet{
		Predictions: []models.PredictionRecord{
			{Topic: "Dynamic Programming", Probability: 0.8, Difficulty: models.DifficultyHard, Section: models.SectionC, Type: models.TypeLongAnswer},
		},
	}}
	fallback := &fakeSource{set: &models.PredictionSet{}}
	e := NewEngine(adapter, fallback, logger.NewTestLogger())

	set := e.Predict(context.Background(), questionsFrom("Solve the knapsack problem."), "CS", "Final")

	require.Len(t, set.Predictions, 1)
	assert.Equal(t, "Dynamic Programming", set.Predictions[0].Topic)
	assert.Equal(t, 1, adapter.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestEngineFallsBackOnAdapterError(t *testing.T) {
	adapter := &fakeSource{err: errors.New("quota exhausted")}
	log := logger.NewTestLogger()
	e := NewEngine(adapter, NewHeuristicSourceAt(2025), log)

	set := e.Predict(context.Background(), questionsFrom("Explain recursion in detail."), "CS", "Final")

	require.NotEmpty(t, set.Predictions)
	assert.Equal(t, "Recursion", set.Predictions[0].Topic)

	var warned bool
	for _, entry := range log.GetEntries() {
		if entry.Level == "WARN" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestEngineSkipsAdapterWithoutQuestions(t *testing.T) {
	adapter := &fakeSource{set: &models.PredictionSet{}}
	e := NewEngine(adapter, NewHeuristicSourceAt(2025), logger.NewTestLogger())

	set := e.Predict(context.Background(), nil, "History", "Midterm")

	assert.Equal(t, 0, adapter.calls)
	// The heuristic generic fallback always yields predictions.
	assert.NotEmpty(t, set.Predictions)
}

func TestEngineNilAdapter(t *testing.T) {
	e := NewEngine(nil, NewHeuristicSourceAt(2025), logger.NewTestLogger())

	set := e.Predict(context.Background(), questionsFrom("Define a queue."), "CS", "Final")

	assert.NotEmpty(t, set.Predictions)
}

func TestNormalizeClampsAndDefaults(t *testing.T) {
	set := &models.PredictionSet{
		Predictions: []models.PredictionRecord{
			{Topic: "Graphs", Probability: 1.5, Difficulty: "impossible", Section: "Z", Type: ""},
			{Topic: "", Probability: -0.2, Difficulty: models.DifficultyEasy, Section: models.SectionB, Type: "Numerical"},
		},
	}

	Normalize(set)

	first := set.Predictions[0]
	assert.Equal(t, 1, first.ID)
	assert.EqualValues(t, 1.0, first.Probability)
	assert.Equal(t, models.DifficultyMedium, first.Difficulty)
	assert.Equal(t, models.SectionA, first.Section)
	assert.Equal(t, models.TypeLongAnswer, first.Type)

	second := set.Predictions[1]
	assert.Equal(t, 2, second.ID)
	assert.EqualValues(t, 0.0, second.Probability)
	assert.Equal(t, models.DifficultyEasy, second.Difficulty)
	assert.Equal(t, models.SectionB, second.Section)
	assert.Equal(t, "Numerical", second.Type)
	assert.Equal(t, "General", second.Topic)
}

func TestNormalizeDerivesSummary(t *testing.T) {
	set := &models.PredictionSet{
		Predictions: []models.PredictionRecord{
			{Topic: "Graphs", Probability: 0.7},
			{Topic: "Trees", Probability: 0.6},
			{Topic: "Graphs", Probability: 0.5},
		},
	}

	Normalize(set)

	assert.Equal(t, []string{"Graphs", "Trees"}, set.Summary)
}
