// Package blob selects the attachment storage backend from configuration.
package blob

import (
	"context"
	"fmt"

	"crmcore/internal/blob/core"
	"crmcore/internal/config"
	"crmcore/internal/infra/blob/fs"
	"crmcore/internal/infra/blob/memory"
	"crmcore/internal/infra/blob/s3"
)

// Open builds the core.Store named by cfg.Driver.
func Open(ctx context.Context, cfg config.BlobConfig) (core.Store, error) {
	switch cfg.Driver {
	case "", config.BlobFilesystem:
		return fs.New(cfg.FSRoot)
	case config.BlobMemory:
		return memory.New(), nil
	case config.BlobS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("blob: open s3: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", cfg.Driver)
	}
}
