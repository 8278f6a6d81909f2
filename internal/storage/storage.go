// Package storage selects a drawing store from configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/storage/filesystem"
	"github.com/inamate/sketchboard/internal/storage/memory"
	"github.com/inamate/sketchboard/internal/storage/postgres"
	"github.com/inamate/sketchboard/internal/storage/s3"
	"github.com/inamate/sketchboard/internal/storage/sqlite"
)

// Backend is a store that holds resources until closed.
type Backend interface {
	drawing.Store
	io.Closer
}

// Open builds the store named by cfg.StorageType.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	var (
		store Backend
		err   error
		attrs []any
	)

	switch cfg.StorageType {
	case "filesystem":
		attrs = append(attrs, "path", cfg.StoragePath)
		store, err = filesystem.NewStore(cfg.StoragePath)
	case "sqlite":
		attrs = append(attrs, "path", cfg.SQLitePath)
		store, err = sqlite.NewStore(ctx, cfg.SQLitePath)
	case "postgres":
		store, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage")
		}
		attrs = append(attrs, "bucket", cfg.S3Bucket)
		store, err = s3.NewStore(ctx, cfg.S3Bucket)
	case "memory", "":
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageType, err)
	}

	slog.Info("using storage", append([]any{"type", cfg.StorageType}, attrs...)...)
	return store, nil
}
