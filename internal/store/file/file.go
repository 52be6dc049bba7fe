package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// DefaultPath is where the snapshot lives when no path is configured.
const DefaultPath = "last_activities.json"

// Store keeps the snapshot in a single JSON file.
type Store struct {
	path string
}

// NewStore creates a file store. An empty path means DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing file is a first run and yields an
// empty slice; an unreadable or undecodable file is an error.
func (s *Store) Load(_ context.Context) ([]domain.Activity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Activity{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return domain.UnmarshalSnapshot(s.path, data)
}

// Save replaces the snapshot. The new content is written to a temporary
// file in the same directory, synced, then renamed over the old one, so a
// crash leaves either the old or the new snapshot in place.
func (s *Store) Save(_ context.Context, activities []domain.Activity) error {
	data, err := domain.MarshalSnapshot(activities)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	committed = true
	return nil
}
