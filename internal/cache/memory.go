package cache

import (
	"context"
	"sync"
	"time"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

const defaultSweepThreshold = 1000

type memEntry struct {
	result    *models.AnalysisResult
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStore is an in-process Store guarded by a mutex. Expired entries are
// evicted lazily on Get; once the entry count crosses the sweep threshold, a
// full sweep drops every expired entry. That is a deliberate simplification
// over LRU and is fine at single-process scale.
type MemoryStore struct {
	mu             sync.Mutex
	entries        map[string]*memEntry
	sweepThreshold int
	now            func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepThreshold sets the entry count that triggers a full expiry sweep.
func WithSweepThreshold(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepThreshold = n
	}
}

// WithClock injects a time source, used by tests to simulate TTL expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:        make(map[string]*memEntry),
		sweepThreshold: defaultSweepThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached result for key, or ErrMiss. An expired entry is
// removed as a side effect and reported as a miss.
func (s *MemoryStore) Get(ctx context.Context, key string) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, ErrMiss
	}
	return e.result, nil
}

// Set stores result under key, overwriting any existing entry. At most one
// entry exists per key at any time.
func (s *MemoryStore) Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = &memEntry{
		result:    result,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}

	if len(s.entries) > s.sweepThreshold {
		s.sweep(now)
	}
	return nil
}

// Len reports the current entry count, expired entries included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep(now time.Time) {
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
