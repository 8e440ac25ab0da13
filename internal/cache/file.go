package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/qepting91/tubescout/internal/domain"
)

// FileStore keeps every entry in memory and rewrites the whole JSON file on each Put.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	entries map[domain.QueryKey][]domain.Video
}

// OpenFile loads the cache file at path. A missing file yields an empty cache.
func OpenFile(path string) (*FileStore, error) {
	store := &FileStore{path: path, entries: make(map[domain.QueryKey][]domain.Video)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store.entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	return store, nil
}

func (s *FileStore) Get(_ context.Context, key domain.QueryKey) ([]domain.Video, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos, ok := s.entries[key]
	return clone(videos), ok, nil
}

func (s *FileStore) Put(_ context.Context, key domain.QueryKey, videos []domain.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	s.entries[key] = clone(videos)
	if err := s.flush(); err != nil {
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// flush writes to a temp file and renames it over the cache so a crash never leaves it half written.
func (s *FileStore) flush() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
