package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"crmcore/internal/blob/core"
	"crmcore/pkg/domain"
)

// DefaultBlobKey is where WriteBlob stores the snapshot when no key is given.
const DefaultBlobKey = "seed/workspace.json"

// BlobSource loads a JSON snapshot from a blob store object.
type BlobSource struct {
	Store core.Store
	Key   string
}

// Load implements Source.
func (b BlobSource) Load(ctx context.Context) (domain.Snapshot, error) {
	key := b.Key
	if key == "" {
		key = DefaultBlobKey
	}
	_, body, err := b.Store.Get(ctx, key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: get %s from %s: %w", key, b.Store.Driver(), err)
	}
	defer func() { _ = body.Close() }()
	return Decode(body)
}

// WriteBlob stores snapshot under key, replacing any existing object.
func WriteBlob(ctx context.Context, store core.Store, key string, snapshot domain.Snapshot) (core.Info, error) {
	if key == "" {
		key = DefaultBlobKey
	}
	var buf bytes.Buffer
	if err := Encode(&buf, snapshot); err != nil {
		return core.Info{}, err
	}
	if _, err := store.Delete(ctx, key); err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Info{}, fmt.Errorf("seed: replace %s: %w", key, err)
	}
	info, err := store.Put(ctx, key, &buf, core.PutOptions{ContentType: "application/json"})
	if err != nil {
		return core.Info{}, fmt.Errorf("seed: put %s: %w", key, err)
	}
	return info, nil
}
