package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/hoanghai1803/ilistas/internal/models"
	"github.com/spf13/afero"
)

// FileStore keeps the collection as a JSON array in a single file.
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewFileStore creates a FileStore writing to path on fsys. Parent
// directories are created if missing.
func NewFileStore(fsys afero.Fs, path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %q: %w", dir, err)
	}
	slog.Info("using json file store", "path", path)
	return &FileStore{fs: fsys, path: path}, nil
}

// Load reads the collection file. A missing file is an empty collection.
func (s *FileStore) Load(ctx context.Context) (models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Collection{}, nil
		}
		return nil, fmt.Errorf("reading %q: %w", s.path, err)
	}
	if len(raw) == 0 {
		return models.Collection{}, nil
	}
	return decodeCollection(raw)
}

// Save writes the collection to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, c models.Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %q: %w", s.path, err)
	}
	return nil
}
