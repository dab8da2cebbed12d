package progress

import (
	"errors"
	"sync"
	"time"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

var ErrJobNotFound = errors.New("progress: job not found")

// Publisher receives a snapshot of every job transition. Used to mirror
// status into redis so the API process can answer polls; a nil publisher is
// allowed.
type Publisher interface {
	Publish(job *models.Job)
}

// Tracker owns per-job state for its lifetime. The state machine is
// Created -> Running -> {Completed, Failed}; Created and the terminal states
// are reachable exactly once, Running may be updated repeatedly. Progress is
// monotonically non-decreasing; once a job is terminal every further update
// is a no-op. Reads return copies and never block writers for long: the map
// is guarded by a RWMutex and no I/O happens under the lock.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*models.Job
	publisher Publisher
	now       func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPublisher mirrors every transition to p.
func WithPublisher(p Publisher) TrackerOption {
	return func(t *Tracker) {
		t.publisher = p
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		jobs: make(map[string]*models.Job),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create registers a new job. Creating an id that already exists is a no-op;
// the original job wins.
func (t *Tracker) Create(jobID string, totalSteps int) {
	t.mu.Lock()
	if _, ok := t.jobs[jobID]; ok {
		t.mu.Unlock()
		return
	}
	job := &models.Job{
		ID:         jobID,
		TotalSteps: totalSteps,
		Status:     models.JobCreated,
		Message:    "job created",
		CreatedAt:  t.now(),
	}
	t.jobs[jobID] = job
	snapshot := *job
	t.mu.Unlock()

	t.publish(&snapshot)
}

// Update moves the job to Running and advances progress. The percent is
// clamped to [lastPercent, 100] so progress never goes backwards; updates
// after a terminal transition are ignored.
func (t *Tracker) Update(jobID string, percent int, message string) {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		t.mu.Unlock()
		return
	}

	if percent < job.Progress {
		percent = job.Progress
	}
	if percent > 100 {
		percent = 100
	}

	job.Status = models.JobRunning
	job.Progress = percent
	job.Message = message
	if job.TotalSteps > 0 {
		job.CurrentStep = job.TotalSteps * percent / 100
	}
	snapshot := *job
	t.mu.Unlock()

	t.publish(&snapshot)
}

// Complete marks the job Completed with its result. A no-op once terminal.
func (t *Tracker) Complete(jobID string, result *models.AnalysisResult) {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	job.Status = models.JobCompleted
	job.Progress = 100
	job.CurrentStep = job.TotalSteps
	job.Message = "analysis complete"
	job.Result = result
	snapshot := *job
	t.mu.Unlock()

	t.publish(&snapshot)
}

// Fail marks the job Failed with the fault's message. A no-op once terminal.
func (t *Tracker) Fail(jobID string, message string) {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok || job.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	job.Status = models.JobFailed
	job.Message = "analysis failed"
	job.Error = message
	snapshot := *job
	t.mu.Unlock()

	t.publish(&snapshot)
}

// Get returns a copy of the job, or ErrJobNotFound. Observers may poll while
// the job is still running.
func (t *Tracker) Get(jobID string) (*models.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// Remove drops a finished job from the tracker.
func (t *Tracker) Remove(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, jobID)
}

func (t *Tracker) publish(job *models.Job) {
	if t.publisher != nil {
		t.publisher.Publish(job)
	}
}
