// Package queue carries analysis jobs from the API server to the worker over
// asynq, and keeps the latest job snapshot in redis so the server process can
// answer status polls for work running elsewhere.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

const TaskTypeAnalyze = "analysis:run"

const statusKeyPrefix = "job_status:"

// ErrJobNotFound is returned when no snapshot exists for the requested job.
var ErrJobNotFound = errors.New("queue: job not found")

// StoredFile references a submitted document already persisted in object
// storage. Content never travels through the queue.
type StoredFile struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// AnalysisTask is the payload of one queued job.
type AnalysisTask struct {
	JobID     string             `json:"jobId"`
	Files     []StoredFile       `json:"files"`
	Exam      models.ExamContext `json:"exam"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Queue is the producer-side contract used by the API layer.
type Queue interface {
	Enqueue(ctx context.Context, task *AnalysisTask) error
	SaveStatus(ctx context.Context, job *models.Job) error
	GetStatus(ctx context.Context, jobID string) (*models.Job, error)
	Close() error
}

type Config struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ProcessTimeout time.Duration
	StatusTTL      time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		RedisAddr:      "localhost:6379",
		ProcessTimeout: 30 * time.Minute,
		StatusTTL:      24 * time.Hour,
	}
}

// AsynqQueue is the redis-backed Queue implementation.
type AsynqQueue struct {
	client *asynq.Client
	redis  *redis.Client
	config *Config
}

func NewAsynqQueue(cfg *Config) *AsynqQueue {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	return &AsynqQueue{
		client: asynq.NewClient(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		config: cfg,
	}
}

// RedisOpt exposes the connection options for building the asynq server on
// the worker side.
func (q *AsynqQueue) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.config.RedisAddr,
		Password: q.config.RedisPassword,
		DB:       q.config.RedisDB,
	}
}

// Enqueue submits one analysis job. The asynq task id is the job id, so a
// duplicate submit of the same job is rejected by the broker. Jobs are not
// retried: a failed run is reported through its status snapshot instead of
// being replayed against the same input.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *AnalysisTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	t := asynq.NewTask(TaskTypeAnalyze, payload,
		asynq.TaskID(task.JobID),
		asynq.MaxRetry(0),
		asynq.Timeout(q.config.ProcessTimeout),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// SaveStatus overwrites the job snapshot in redis. Snapshots expire after
// StatusTTL so abandoned jobs do not accumulate.
func (q *AsynqQueue) SaveStatus(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKeyPrefix+job.ID, data, q.config.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job status: %w", err)
	}
	return nil
}

// GetStatus reads the latest snapshot for a job.
func (q *AsynqQueue) GetStatus(ctx context.Context, jobID string) (*models.Job, error) {
	data, err := q.redis.Get(ctx, statusKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job status: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}
	return &job, nil
}

// Publish implements progress.Publisher: every tracker transition in the
// worker is mirrored to redis, best effort.
func (q *AsynqQueue) Publish(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = q.SaveStatus(ctx, job)
}

func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}
