package predict

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

const maxHeuristicPredictions = 10

type keywordTopic struct {
	keyword string
	topic   string
}

// vocabulary is the fixed keyword list the fallback scans for. Order matters:
// it is the deterministic tie-break when two keywords occur equally often.
var vocabulary = []keywordTopic{
	{"algorithm", "Algorithm Design and Analysis"},
	{"sorting", "Sorting Techniques"},
	{"searching", "Searching Techniques"},
	{"array", "Arrays and Sequential Data"},
	{"recursion", "Recursion"},
	{"complexity", "Time and Space Complexity"},
	{"stack", "Stacks"},
	{"queue", "Queues"},
	{"tree", "Trees and Hierarchical Structures"},
	{"graph", "Graph Theory and Traversal"},
	{"pointer", "Pointers and Memory References"},
	{"database", "Database Systems"},
	{"normalization", "Database Normalization"},
	{"query", "Query Languages"},
	{"network", "Computer Networks"},
	{"protocol", "Network Protocols"},
	{"process", "Processes and Scheduling"},
	{"thread", "Threads and Concurrency"},
	{"memory", "Memory Management"},
	{"cache", "Caching"},
	{"matrix", "Matrices"},
	{"vector", "Vectors"},
	{"probability", "Probability"},
	{"integration", "Integration"},
	{"derivative", "Differentiation"},
	{"equation", "Equations and Their Solutions"},
	{"circuit", "Circuits"},
	{"energy", "Work, Power and Energy"},
	{"reaction", "Chemical Reactions"},
	{"cell", "Cell Biology"},
}

// genericTopics back the empty-input case: the fallback must always return a
// non-empty list, even when no question text matched anything.
var genericTopics = []string{
	"Fundamentals",
	"Core Principles",
	"Key Definitions",
	"Standard Applications",
}

// HeuristicSource is the deterministic local fallback. Predict is a pure
// function of (questions, subject, examName): identical inputs always yield
// identical output. The trend base year is fixed at construction so repeated
// calls agree.
type HeuristicSource struct {
	baseYear int
}

func NewHeuristicSource() *HeuristicSource {
	return &HeuristicSource{baseYear: time.Now().Year()}
}

// NewHeuristicSourceAt pins the trend base year, used by tests for golden
// output.
func NewHeuristicSourceAt(year int) *HeuristicSource {
	return &HeuristicSource{baseYear: year}
}

func (s *HeuristicSource) Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) (*models.PredictionSet, error) {
	counts := countKeywords(questions)

	ranked := make([]int, 0, len(counts))
	for idx := range vocabulary {
		if counts[idx] > 0 {
			ranked = append(ranked, idx)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if counts[ranked[a]] != counts[ranked[b]] {
			return counts[ranked[a]] > counts[ranked[b]]
		}
		return ranked[a] < ranked[b]
	})
	if len(ranked) > maxHeuristicPredictions {
		ranked = ranked[:maxHeuristicPredictions]
	}

	var predictions []models.PredictionRecord
	if len(ranked) == 0 {
		predictions = genericPredictions(subject)
	} else {
		predictions = rankedPredictions(ranked, counts, subject)
	}

	summary := make([]string, 0, len(predictions))
	for _, p := range predictions {
		summary = append(summary, p.Topic)
	}

	return &models.PredictionSet{
		Predictions: predictions,
		Summary:     summary,
		Trends:      s.trends(predictions),
	}, nil
}

// countKeywords tallies vocabulary hits across all question text. A word
// counts when it equals a keyword or extends it (plurals, "-ing" forms of
// longer stems).
func countKeywords(questions []models.QuestionRecord) map[int]int {
	counts := make(map[int]int)
	for _, q := range questions {
		words := strings.FieldsFunc(strings.ToLower(q.Text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			for idx, kt := range vocabulary {
				if word == kt.keyword || (strings.HasPrefix(word, kt.keyword) && len(word) <= len(kt.keyword)+2) {
					counts[idx]++
				}
			}
		}
	}
	return counts
}

func rankedPredictions(ranked []int, counts map[int]int, subject string) []models.PredictionRecord {
	n := len(ranked)
	predictions := make([]models.PredictionRecord, 0, n)
	for i, idx := range ranked {
		kt := vocabulary[idx]

		// Rank tier: top third Easy, middle third Medium, remainder Hard.
		var difficulty, section, qtype string
		switch i * 3 / n {
		case 0:
			difficulty, section, qtype = models.DifficultyEasy, models.SectionA, "Short Answer"
		case 1:
			difficulty, section, qtype = models.DifficultyMedium, models.SectionB, models.TypeLongAnswer
		default:
			difficulty, section, qtype = models.DifficultyHard, models.SectionC, models.TypeLongAnswer
		}

		predictions = append(predictions, models.PredictionRecord{
			Topic:       kt.topic,
			Question:    fmt.Sprintf("Explain %s in the context of %s, with suitable examples.", kt.topic, subject),
			Difficulty:  difficulty,
			Probability: 0.9 - 0.07*float64(i),
			Type:        qtype,
			Rationale:   fmt.Sprintf("keyword %q matched %d time(s) in past papers", kt.keyword, counts[idx]),
			Section:     section,
		})
	}
	return predictions
}

func genericPredictions(subject string) []models.PredictionRecord {
	predictions := make([]models.PredictionRecord, 0, len(genericTopics))
	for i, topic := range genericTopics {
		predictions = append(predictions, models.PredictionRecord{
			Topic:       fmt.Sprintf("%s %s", subject, topic),
			Question:    fmt.Sprintf("Discuss the %s of %s.", strings.ToLower(topic), subject),
			Difficulty:  models.DifficultyMedium,
			Probability: 0.5 - 0.05*float64(i),
			Type:        models.TypeLongAnswer,
			Rationale:   "no recurring topics were found in the submitted papers",
			Section:     models.SectionA,
		})
	}
	return predictions
}

// trends synthesizes a difficulty progression over the three most recent
// years from the predicted difficulty mix.
func (s *HeuristicSource) trends(predictions []models.PredictionRecord) models.TrendData {
	var easy, medium, hard int
	for _, p := range predictions {
		switch p.Difficulty {
		case models.DifficultyEasy:
			easy++
		case models.DifficultyHard:
			hard++
		default:
			medium++
		}
	}

	progression := make([]models.DifficultyYear, 0, 3)
	for offset := 2; offset >= 0; offset-- {
		// Older years skew slightly easier, a fixed one-step drift.
		progression = append(progression, models.DifficultyYear{
			Year:   s.baseYear - offset,
			Easy:   easy + offset,
			Medium: medium,
			Hard:   maxInt(hard-offset, 0),
		})
	}
	return models.TrendData{DifficultyProgression: progression}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
