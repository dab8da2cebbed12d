package progress

import "github.com/feichai0017/exam-analyzer/internal/models"

// Sink is the write side of job progress. The pipeline reports through this
// interface instead of holding a Tracker, so the storage mechanism behind
// status updates can be swapped without touching extraction or orchestration
// code.
type Sink interface {
	Update(jobID string, percent int, message string)
	Complete(jobID string, result *models.AnalysisResult)
	Fail(jobID string, message string)
}

var _ Sink = (*Tracker)(nil)

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) Update(string, int, string)              {}
func (NopSink) Complete(string, *models.AnalysisResult) {}
func (NopSink) Fail(string, string)                     {}
