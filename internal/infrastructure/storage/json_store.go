package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/ports"
)

// ErrCorruptState reports persisted state that could not be read back.
var ErrCorruptState = errors.New("known publications state is unreadable")

// JSONStore keeps known publications in a single JSON document.
type JSONStore struct {
	path string
}

var _ ports.KnownStore = (*JSONStore)(nil)

// NewJSONStore binds the store to a file path; the file is created on first save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load returns an empty mapping when the file is missing, and an empty mapping
// plus ErrCorruptState when it cannot be decoded.
func (s *JSONStore) Load(ctx context.Context) (domain.KnownPublications, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.KnownPublications{}, nil
	}
	if err != nil {
		return domain.KnownPublications{}, fmt.Errorf("%w: read %s: %v", ErrCorruptState, s.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.KnownPublications{}, fmt.Errorf("%w: %s is empty", ErrCorruptState, s.path)
	}

	var state domain.KnownPublications
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.KnownPublications{}, fmt.Errorf("%w: decode %s: %v", ErrCorruptState, s.path, err)
	}
	if state == nil {
		state = domain.KnownPublications{}
	}
	return state, nil
}

// Save writes to a temporary sibling file and renames it over the target,
// so readers only ever observe a complete document.
func (s *JSONStore) Save(ctx context.Context, state domain.KnownPublications) error {
	if state == nil {
		state = domain.KnownPublications{}
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
