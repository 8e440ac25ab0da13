// Package cache persists search results keyed by domain.QueryKey.
//
// Entries never expire and the durable stores are unbounded: a result stays
// until it is overwritten or the backing file or database is removed.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/tubescout/internal/config"
	"github.com/qepting91/tubescout/internal/domain"
)

// Store is a persistent key to result-list mapping. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the cached result for key; ok is false when nothing is stored.
	Get(ctx context.Context, key domain.QueryKey) (videos []domain.Video, ok bool, err error)
	// Put stores videos under key and persists it before returning.
	Put(ctx context.Context, key domain.QueryKey, videos []domain.Video) error
	Close() error
}

// Open builds the configured durable store, optionally fronted by an in-memory LRU.
func Open(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "file", "":
		store, err = OpenFile(cfg.File)
	case "sqlite":
		store, err = OpenSQLite(cfg.SQLitePath)
	case "redis":
		store, err = OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("cache opened", "driver", cfg.Driver, "mem_entries", cfg.MemEntries)

	if cfg.MemEntries > 0 {
		tiered, err := NewTiered(store, cfg.MemEntries)
		if err != nil {
			store.Close()
			return nil, err
		}
		return tiered, nil
	}
	return store, nil
}

// clone copies videos so callers never share a backing array with the store.
func clone(videos []domain.Video) []domain.Video {
	if videos == nil {
		return nil
	}
	out := make([]domain.Video, len(videos))
	copy(out, videos)
	return out
}
