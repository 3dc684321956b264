package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/templui/feedbackdesk/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage defines the interface for attachment storage operations
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, file io.Reader, contentType string) error

	// Open streams the file at path. Returns ErrObjectNotFound when it is gone.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error
}

// New picks the storage backend from app config: "local" (default) or "s3".
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "local", "":
		slog.Info("initializing local storage", "path", c.StoragePath)
		return NewLocalStorage(c.StoragePath), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
