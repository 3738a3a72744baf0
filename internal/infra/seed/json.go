package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"crmcore/pkg/domain"
)

// JSONFile loads a snapshot from a JSON document on disk.
type JSONFile struct {
	Path string
}

// Load implements Source.
func (j JSONFile) Load(context.Context) (domain.Snapshot, error) {
	f, err := os.Open(j.Path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: open %s: %w", j.Path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads one JSON snapshot from r.
func Decode(r io.Reader) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Encode writes snapshot to w as indented JSON.
func Encode(w io.Writer, snapshot domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("seed: encode snapshot: %w", err)
	}
	return nil
}

// WriteJSONFile encodes snapshot into path, creating parent directories.
func WriteJSONFile(path string, snapshot domain.Snapshot) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("seed: create dirs: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("seed: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()
	return Encode(f, snapshot)
}
