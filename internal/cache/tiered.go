package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/qepting91/tubescout/internal/domain"
)

// Tiered serves hot keys from a bounded in-memory LRU (L1) in front of a durable
// store (L2). L2 stays authoritative: writes go through to it first, and an L1
// eviction never drops data.
type Tiered struct {
	l1 *lru.Cache[domain.QueryKey, []domain.Video]
	l2 Store
}

func NewTiered(l2 Store, size int) (*Tiered, error) {
	l1, err := lru.New[domain.QueryKey, []domain.Video](size)
	if err != nil {
		return nil, fmt.Errorf("cache: create lru: %w", err)
	}
	return &Tiered{l1: l1, l2: l2}, nil
}

func (t *Tiered) Get(ctx context.Context, key domain.QueryKey) ([]domain.Video, bool, error) {
	if videos, ok := t.l1.Get(key); ok {
		return clone(videos), true, nil
	}
	videos, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	t.l1.Add(key, clone(videos))
	return videos, true, nil
}

func (t *Tiered) Put(ctx context.Context, key domain.QueryKey, videos []domain.Video) error {
	if err := t.l2.Put(ctx, key, videos); err != nil {
		return err
	}
	t.l1.Add(key, clone(videos))
	return nil
}

func (t *Tiered) Close() error {
	t.l1.Purge()
	return t.l2.Close()
}
