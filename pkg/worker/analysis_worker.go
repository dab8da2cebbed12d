package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/internal/progress"
	"github.com/feichai0017/exam-analyzer/internal/service/analysis"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/queue"
	"github.com/feichai0017/exam-analyzer/pkg/storage"
)

// AnalysisWorker pulls analysis tasks off the queue, loads the submitted
// papers from object storage and runs them through the pipeline. Job outcome
// is reported through the tracker, never through the asynq retry machinery.
type AnalysisWorker struct {
	BaseWorker
	svc     analysis.Analyzer
	store   storage.Storage
	tracker *progress.Tracker
}

func NewAnalysisWorker(
	cfg *Config,
	svc analysis.Analyzer,
	store storage.Storage,
	tracker *progress.Tracker,
	log logger.Logger,
) (*AnalysisWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
		},
	)

	w := &AnalysisWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		svc:     svc,
		store:   store,
		tracker: tracker,
	}

	w.mux.HandleFunc(queue.TaskTypeAnalyze, w.handleAnalyze)
	return w, nil
}

func (w *AnalysisWorker) handleAnalyze(ctx context.Context, t *asynq.Task) error {
	var task queue.AnalysisTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if task.JobID == "" || len(task.Files) == 0 {
		return fmt.Errorf("invalid task data: missing job id or files")
	}

	w.logger.Info("Processing analysis task",
		logger.String("jobId", task.JobID),
		logger.Int("files", len(task.Files)),
		logger.String("subject", task.Exam.Subject),
	)

	// One step per file plus prediction and caching.
	w.tracker.Create(task.JobID, len(task.Files)+2)

	files := make([]models.FileAsset, 0, len(task.Files))
	for _, ref := range task.Files {
		asset := models.FileAsset{
			Name:     ref.Name,
			MimeType: ref.MimeType,
			Size:     ref.Size,
		}
		// A fetch failure leaves the asset empty so extraction records the
		// file as failed without aborting the job.
		content, err := w.fetchFile(ctx, ref.Key)
		if err != nil {
			w.logger.Warn("Failed to fetch stored file",
				logger.String("jobId", task.JobID),
				logger.String("key", ref.Key),
				logger.Error(err),
			)
		} else {
			asset.Content = content
		}
		files = append(files, asset)
	}

	if _, err := w.svc.Run(ctx, task.JobID, files, task.Exam); err != nil {
		w.logger.Error("Analysis run failed",
			logger.String("jobId", task.JobID),
			logger.Error(err),
		)
		w.tracker.Fail(task.JobID, err.Error())
		return nil
	}

	w.deleteStoredFiles(task.Files)
	return nil
}

func (w *AnalysisWorker) fetchFile(ctx context.Context, key string) ([]byte, error) {
	rc, err := w.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// deleteStoredFiles is best effort; CleanupBefore collects whatever is left.
func (w *AnalysisWorker) deleteStoredFiles(refs []queue.StoredFile) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, ref := range refs {
		if err := w.store.Delete(ctx, ref.Key); err != nil {
			w.logger.Warn("Failed to delete stored file",
				logger.String("key", ref.Key),
				logger.Error(err),
			)
		}
	}
}

func (w *AnalysisWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
