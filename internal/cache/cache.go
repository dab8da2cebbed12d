package cache

import (
	"context"
	"errors"
	"time"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

// ErrMiss is returned for absent, expired, or unreadable entries. Corrupt
// entries are deliberately indistinguishable from misses: both resolve to
// "recompute".
var ErrMiss = errors.New("cache: miss")

// Store is a content-addressable, TTL-bound result cache. Keys are the opaque
// fingerprints produced by the orchestrator.
type Store interface {
	Get(ctx context.Context, key string) (*models.AnalysisResult, error)
	Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error
}
