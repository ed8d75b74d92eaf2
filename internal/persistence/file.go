package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modditech/moddi-social/internal/models"
)

// FileStore keeps one JSON file per key under a directory. It is the default
// adapter and mirrors the key/value storage the system originally ran on.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the file for key. A missing file means the key was never saved.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w: %w", key, models.ErrPersistence, err)
	}
	return data, true, nil
}

// Save writes the file for key, creating the directory if needed.
func (s *FileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("save %s: %w: %w", key, models.ErrPersistence, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w: %w", key, models.ErrPersistence, err)
	}
	return nil
}
