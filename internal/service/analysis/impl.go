package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/feichai0017/exam-analyzer/internal/cache"
	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/internal/progress"
	"github.com/feichai0017/exam-analyzer/internal/segment"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

const (
	fileStatusSuccess = "success"
	fileStatusFailed  = "failed"
)

type Service struct {
	extractor Extractor
	predictor Predictor
	cache     cache.Store
	progress  progress.Sink
	logger    logger.Logger
	config    *Config
}

func NewService(
	extractor Extractor,
	predictor Predictor,
	cacheStore cache.Store,
	sink progress.Sink,
	log logger.Logger,
	cfg *Config,
) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if sink == nil {
		sink = progress.NopSink{}
	}
	return &Service{
		extractor: extractor,
		predictor: predictor,
		cache:     cacheStore,
		progress:  sink,
		logger:    log,
		config:    cfg,
	}
}

// Run executes one analysis job end to end. Per-file extraction failures are
// recorded and never abort the run; only an unexpected fault fails the job,
// in which case nothing is written to the cache.
func (s *Service) Run(ctx context.Context, jobID string, files []models.FileAsset, examCtx models.ExamContext) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis pipeline fault: %v", r)
			s.logger.Error("analysis run panicked",
				logger.String("jobId", jobID),
				logger.Any("fault", r),
			)
			s.progress.Fail(jobID, err.Error())
		}
	}()

	s.progress.Update(jobID, 2, "checking for a previous analysis of these files")
	key := Fingerprint(files, examCtx)

	if cached, cacheErr := s.cache.Get(ctx, key); cacheErr == nil {
		// Cache hit short-circuits the whole pipeline: no extraction, no
		// prediction. The job is completed with the cached payload as-is.
		s.logger.Info("analysis cache hit",
			logger.String("jobId", jobID),
			logger.String("key", key),
		)
		s.progress.Complete(jobID, cached)
		return cached, nil
	}

	var (
		questions   []models.QuestionRecord
		fileResults = make([]models.FileResult, 0, len(files))
		pages       int
		ocrFiles    []string
		failedFiles []string
	)

	for i := range files {
		asset := &files[i]
		res := s.extractor.Extract(ctx, asset)

		fr := models.FileResult{
			Filename: asset.Name,
			Method:   res.Method,
		}
		if res.Method == models.MethodNone {
			fr.Status = fileStatusFailed
			failedFiles = append(failedFiles, asset.Name)
			s.logger.Warn("file extraction failed",
				logger.String("jobId", jobID),
				logger.String("file", asset.Name),
				logger.String("error", res.Error),
			)
		} else {
			fr.Status = fileStatusSuccess
			pages += res.PageCount
			if res.Method == models.MethodOCR {
				ocrFiles = append(ocrFiles, asset.Name)
			}
			found := segment.Split(res.Text)
			for _, q := range found {
				questions = append(questions, models.QuestionRecord{
					Text:       q,
					SourceFile: asset.Name,
				})
			}
			fr.QuestionsFound = len(found)
		}
		fileResults = append(fileResults, fr)

		s.progress.Update(jobID, 5+(i+1)*65/len(files),
			fmt.Sprintf("extracted %d of %d files", i+1, len(files)))
	}

	s.progress.Update(jobID, 75, "deriving question predictions")
	set := s.predictor.Predict(ctx, questions, examCtx.Subject, examCtx.ExamName)

	result = &models.AnalysisResult{
		Predictions: set.Predictions,
		Summary:     set.Summary,
		Trends:      set.Trends,
		Analysis: models.AnalysisStats{
			PapersAnalyzed:     len(files),
			PagesProcessed:     pages,
			QuestionsExtracted: len(questions),
			TopicsCovered:      countTopics(set.Predictions),
			OCRUsed:            len(ocrFiles) > 0,
			FileResults:        fileResults,
		},
		Warnings: buildWarnings(ocrFiles, failedFiles, len(questions)),
	}

	s.progress.Update(jobID, 95, "caching analysis result")
	if cacheErr := s.cache.Set(ctx, key, result, s.config.CacheTTL); cacheErr != nil {
		// A cache write failure costs a future recompute, nothing more.
		s.logger.Warn("failed to cache analysis result",
			logger.String("jobId", jobID),
			logger.Error(cacheErr),
		)
	}

	s.progress.Complete(jobID, result)
	s.logger.Info("analysis run completed",
		logger.String("jobId", jobID),
		logger.Int("files", len(files)),
		logger.Int("questions", len(questions)),
		logger.Int("predictions", len(result.Predictions)),
	)
	return result, nil
}

func countTopics(predictions []models.PredictionRecord) int {
	seen := make(map[string]bool)
	for _, p := range predictions {
		seen[p.Topic] = true
	}
	return len(seen)
}

func buildWarnings(ocrFiles, failedFiles []string, questionCount int) []string {
	warnings := make([]string, 0, 3)
	if len(ocrFiles) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"OCR was used for %d file(s); extraction accuracy depends on scan quality", len(ocrFiles)))
	}
	if len(failedFiles) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"no text could be extracted from: %s", strings.Join(failedFiles, ", ")))
	}
	if questionCount == 0 {
		warnings = append(warnings,
			"no questions were found in the submitted files; predictions are based on general subject coverage")
	}
	return warnings
}
