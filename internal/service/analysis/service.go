// Package analysis composes extraction, segmentation, prediction, caching
// and progress tracking into one end-to-end run per submitted job.
package analysis

import (
	"context"
	"time"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

// Analyzer is the orchestrator contract consumed by the worker.
type Analyzer interface {
	Run(ctx context.Context, jobID string, files []models.FileAsset, examCtx models.ExamContext) (*models.AnalysisResult, error)
}

// Extractor is the per-asset extraction dependency (the cascade in
// production, a fake in tests).
type Extractor interface {
	Extract(ctx context.Context, asset *models.FileAsset) *models.ExtractionResult
}

// Predictor derives the prediction set for a job. Implementations never
// fail; adapter trouble is absorbed behind this interface.
type Predictor interface {
	Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) *models.PredictionSet
}

// Config tunes one orchestrator instance.
type Config struct {
	CacheTTL time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		CacheTTL: 24 * time.Hour,
	}
}
