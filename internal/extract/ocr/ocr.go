package ocr

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Result is one recognition pass over a single image.
type Result struct {
	Text       string
	Confidence float64 // 0-100
}

// Recognizer turns image bytes into text. Implementations are safe for
// concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*Result, error)
	Close() error
}

var (
	sharedMu sync.RWMutex
	shared   Recognizer
	initG    singleflight.Group
)

// Shared returns the process-wide recognizer, constructing it on first use
// via build. The engine is expensive to initialize, so concurrent first
// callers collapse into a single initialization and all receive the same
// ready instance.
func Shared(build func() (Recognizer, error)) (Recognizer, error) {
	sharedMu.RLock()
	r := shared
	sharedMu.RUnlock()
	if r != nil {
		return r, nil
	}

	v, err, _ := initG.Do("ocr-engine", func() (interface{}, error) {
		sharedMu.RLock()
		r := shared
		sharedMu.RUnlock()
		if r != nil {
			return r, nil
		}

		r, err := build()
		if err != nil {
			return nil, err
		}

		sharedMu.Lock()
		shared = r
		sharedMu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Recognizer), nil
}

// Shutdown closes and forgets the shared recognizer. The next Shared call
// initializes a fresh one.
func Shutdown() error {
	sharedMu.Lock()
	r := shared
	shared = nil
	sharedMu.Unlock()

	if r != nil {
		return r.Close()
	}
	return nil
}
