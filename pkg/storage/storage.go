package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JaimeStill/casefile/pkg/lifecycle"
)

// System defines blob storage operations.
type System interface {
	// Store streams r to key, overwriting existing content. size is the
	// expected length or -1 when unknown.
	Store(ctx context.Context, key string, r io.Reader, size int64) error

	// Open returns a reader for the content at key.
	// Returns ErrNotFound if the key does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Validate reports whether key exists.
	Validate(ctx context.Context, key string) (bool, error)

	// SignURL returns a time-limited download URL for key. filename sets
	// the suggested attachment name.
	SignURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the System selected by cfg.Driver.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		fs, err := NewFilesystem(cfg, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case DriverS3:
		s, err := NewS3(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
