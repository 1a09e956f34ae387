package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/koustreak/biconnector/internal/errs"
)

// FileStore keeps one JSON file per key under a directory. Writes go to a
// temp file that is renamed into place, so readers never see a torn file
// and concurrent writers resolve to last-writer-wins.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindCacheWrite, "failed to create cache directory", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}
	return data, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.ErrKindCacheWrite, "failed to create temp cache file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Wrap(errs.ErrKindCacheWrite, "failed to write cache file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.ErrKindCacheWrite, "failed to close cache file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.ErrKindCacheWrite, "failed to move cache file into place", err)
	}
	return nil
}

// path maps key to a file inside dir. Keys carrying path separators are
// rejected.
func (s *FileStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}
