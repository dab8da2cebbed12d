package predict

import (
	"context"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

// Source produces a prediction set from extracted questions. The engine
// chains two implementations: the external inference adapter and the local
// heuristic fallback. Call sites never pick between them directly.
type Source interface {
	Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) (*models.PredictionSet, error)
}
