// Package storage holds submitted exam papers between the API server that
// receives them and the worker that analyzes them.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/storage/minio"
	"github.com/feichai0017/exam-analyzer/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

type Storage interface {
	// Store writes a file and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens a stored file for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes files last modified before the threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
