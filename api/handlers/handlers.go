package handlers

import (
	"github.com/feichai0017/exam-analyzer/internal/utils/validator"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/queue"
	"github.com/feichai0017/exam-analyzer/pkg/storage"
)

type Handlers struct {
	Analysis *AnalysisHandler
}

func NewHandlers(
	store storage.Storage,
	q queue.Queue,
	v *validator.SubmissionValidator,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Analysis: NewAnalysisHandler(store, q, v, log),
	}
}
