package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/exam-analyzer/internal/cache"
	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

type fakeExtractor struct {
	results map[string]*models.ExtractionResult
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, asset *models.FileAsset) *models.ExtractionResult {
	f.calls++
	if res, ok := f.results[asset.Name]; ok {
		return res
	}
	return &models.ExtractionResult{Method: models.MethodNone, Error: "unexpected file"}
}

type fakePredictor struct {
	set       *models.PredictionSet
	questions []models.QuestionRecord
	panicking bool
}

func (f *fakePredictor) Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) *models.PredictionSet {
	if f.panicking {
		panic("prediction engine fault")
	}
	f.questions = questions
	return f.set
}

type fakeCache struct {
	mu     sync.Mutex
	hit    *models.AnalysisResult
	setErr error
	sets   map[string]*models.AnalysisResult
}

func newFakeCache() *fakeCache {
	return &fakeCache{sets: make(map[string]*models.AnalysisResult)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (*models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hit != nil {
		return f.hit, nil
	}
	return nil, cache.ErrMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets[key] = result
	return nil
}

type fakeSink struct {
	updates   []int
	completed *models.AnalysisResult
	failedMsg string
}

func (f *fakeSink) Update(jobID string, percent int, message string) {
	f.updates = append(f.updates, percent)
}

func (f *fakeSink) Complete(jobID string, result *models.AnalysisResult) {
	f.completed = result
}

func (f *fakeSink) Fail(jobID string, message string) {
	f.failedMsg = message
}

func defaultPredictionSet() *models.PredictionSet {
	return &models.PredictionSet{
		Predictions: []models.PredictionRecord{
			{ID: 1, Topic: "Recursion", Probability: 0.9},
			{ID: 2, Topic: "Graphs", Probability: 0.8},
		},
		Summary: []string{"Recursion", "Graphs"},
	}
}

func examCtx() models.ExamContext {
	return models.ExamContext{Subject: "Computer Science", ExamName: "Final 2025"}
}

func TestRunHappyPath(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"a.txt": {
			Text:      "1. Explain recursion with an example.\n2. Define a graph.",
			PageCount: 1,
			Method:    models.MethodText,
		},
		"b.pdf": {
			Text:      "1. Draw the recursion tree for merge sort.",
			PageCount: 3,
			Method:    models.MethodOCR,
		},
	}}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	store := newFakeCache()
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, store, sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{
		{Name: "a.txt", Content: []byte("one")},
		{Name: "b.pdf", Content: []byte("two")},
	}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.Analysis.PapersAnalyzed)
	assert.Equal(t, 4, result.Analysis.PagesProcessed)
	assert.Equal(t, 3, result.Analysis.QuestionsExtracted)
	assert.Equal(t, 2, result.Analysis.TopicsCovered)
	assert.True(t, result.Analysis.OCRUsed)
	require.Len(t, result.Analysis.FileResults, 2)
	assert.Equal(t, "success", result.Analysis.FileResults[0].Status)
	assert.Equal(t, 2, result.Analysis.FileResults[0].QuestionsFound)

	// Questions flow into the predictor tagged with their source file.
	require.Len(t, predictor.questions, 3)
	assert.Equal(t, "a.txt", predictor.questions[0].SourceFile)

	// The run completed and was cached.
	assert.Same(t, result, sink.completed)
	assert.Len(t, store.sets, 1)
}

func TestRunCacheHitSkipsPipeline(t *testing.T) {
	cached := &models.AnalysisResult{Summary: []string{"from cache"}}
	extractor := &fakeExtractor{}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	store := newFakeCache()
	store.hit = cached
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, store, sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{{Name: "a.txt", Content: []byte("one")}}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())
	require.NoError(t, err)

	assert.Same(t, cached, result)
	assert.Same(t, cached, sink.completed)
	assert.Equal(t, 0, extractor.calls)
	assert.Nil(t, predictor.questions)
}

func TestRunRecordsFailedFiles(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"good.txt": {
			Text:      "1. Explain deadlock avoidance in detail.",
			PageCount: 1,
			Method:    models.MethodText,
		},
		"bad.pdf": {
			Method: models.MethodNone,
			Error:  "no extraction strategy produced usable text",
		},
	}}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, newFakeCache(), sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{
		{Name: "good.txt", Content: []byte("one")},
		{Name: "bad.pdf", Content: []byte("two")},
	}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())
	require.NoError(t, err)

	// A bad file degrades the report, it does not fail the job.
	assert.Equal(t, "failed", result.Analysis.FileResults[1].Status)
	assert.Equal(t, 1, result.Analysis.QuestionsExtracted)
	assert.NotNil(t, sink.completed)

	var warned bool
	for _, w := range result.Warnings {
		if w == "no text could be extracted from: bad.pdf" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunCompletesWithZeroQuestions(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"empty.txt": {Text: "", PageCount: 1, Method: models.MethodText},
	}}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, newFakeCache(), sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{{Name: "empty.txt", Content: []byte("")}}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Analysis.QuestionsExtracted)
	assert.NotNil(t, sink.completed)
	assert.Contains(t, result.Warnings,
		"no questions were found in the submitted files; predictions are based on general subject coverage")
}

func TestRunCompletesWhenAllFilesFail(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"a.pdf": {Method: models.MethodNone, Error: "unreadable"},
		"b.pdf": {Method: models.MethodNone, Error: "unreadable"},
	}}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, newFakeCache(), sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{
		{Name: "a.pdf", Content: []byte("one")},
		{Name: "b.pdf", Content: []byte("two")},
	}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())
	require.NoError(t, err)

	// The prediction engine still runs, with an empty question list.
	assert.Equal(t, 0, result.Analysis.QuestionsExtracted)
	assert.NotEmpty(t, result.Predictions)
	assert.NotNil(t, sink.completed)
	for _, fr := range result.Analysis.FileResults {
		assert.Equal(t, "failed", fr.Status)
	}
}

func TestRunFatalFaultFailsJob(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"a.txt": {Text: "1. Explain paging in operating systems.", PageCount: 1, Method: models.MethodText},
	}}
	predictor := &fakePredictor{panicking: true}
	store := newFakeCache()
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, store, sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{{Name: "a.txt", Content: []byte("one")}}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotEmpty(t, sink.failedMsg)
	// Nothing is cached for a failed run.
	assert.Empty(t, store.sets)
	assert.Nil(t, sink.completed)
}

func TestRunCacheWriteFailureIsNonFatal(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]*models.ExtractionResult{
		"a.txt": {Text: "1. Explain virtual memory and paging.", PageCount: 1, Method: models.MethodText},
	}}
	predictor := &fakePredictor{set: defaultPredictionSet()}
	store := newFakeCache()
	store.setErr = errors.New("redis connection refused")
	sink := &fakeSink{}

	svc := NewService(extractor, predictor, store, sink, logger.NewTestLogger(), nil)
	files := []models.FileAsset{{Name: "a.txt", Content: []byte("one")}}

	result, err := svc.Run(context.Background(), "job-1", files, examCtx())

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Same(t, result, sink.completed)
}
