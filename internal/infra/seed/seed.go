// Package seed produces the initial workspace snapshot from the configured
// source: the built-in demo data, a JSON document on disk or in blob storage,
// or a SQL database holding one JSON payload per collection.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crmcore/internal/blob/core"
	"crmcore/internal/config"
	"crmcore/pkg/domain"
)

// ErrNoSource is returned by Open when the configured source needs a path,
// DSN or blob store that was not supplied.
var ErrNoSource = errors.New("seed: source not configured")

// Source yields a workspace snapshot.
type Source interface {
	Load(ctx context.Context) (domain.Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (domain.Snapshot, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) (domain.Snapshot, error) { return f(ctx) }

// DemoSource returns the demo workspace anchored at the time reported by Now.
type DemoSource struct {
	Now func() time.Time
}

// Load implements Source.
func (d DemoSource) Load(context.Context) (domain.Snapshot, error) {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	return Demo(now), nil
}

// Empty is a Source producing a workspace with only the default statuses.
var Empty Source = SourceFunc(func(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{LeadStatuses: domain.DefaultLeadStatuses()}, nil
})

// Open resolves cfg into a Source. blobs is only consulted for the blob source.
func Open(cfg config.SeedConfig, blobs core.Store, now func() time.Time) (Source, error) {
	switch cfg.Source {
	case "", config.SeedDemo:
		return DemoSource{Now: now}, nil
	case config.SeedNone:
		return Empty, nil
	case config.SeedJSON:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: json seed needs a path", ErrNoSource)
		}
		return JSONFile{Path: cfg.Path}, nil
	case config.SeedBlob:
		if blobs == nil {
			return nil, fmt.Errorf("%w: blob seed needs a blob store", ErrNoSource)
		}
		return BlobSource{Store: blobs, Key: cfg.BlobKey}, nil
	case config.SeedSQLite:
		if cfg.Path == "" && cfg.DSN == "" {
			return nil, fmt.Errorf("%w: sqlite seed needs a path", ErrNoSource)
		}
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		return SQLSource{Driver: DriverSQLite, DSN: dsn}, nil
	case config.SeedPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: postgres seed needs a dsn", ErrNoSource)
		}
		return SQLSource{Driver: DriverPostgres, DSN: cfg.DSN}, nil
	default:
		return nil, fmt.Errorf("seed: unknown source %q", cfg.Source)
	}
}
