package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qepting91/tubescout/internal/domain"
)

// SQLiteStore keeps one row per query key with the result list as a JSON blob.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("cache: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS search_cache (
		query_key  TEXT PRIMARY KEY,
		videos     TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key domain.QueryKey) ([]domain.Video, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT videos FROM search_cache WHERE query_key = ?`, string(key)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var videos []domain.Video
	if err := json.Unmarshal([]byte(raw), &videos); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return videos, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key domain.QueryKey, videos []domain.Video) error {
	raw, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_cache (query_key, videos, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(query_key) DO UPDATE SET videos = excluded.videos, updated_at = excluded.updated_at`,
		string(key), string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
