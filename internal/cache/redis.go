package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qepting91/tubescout/internal/domain"
)

const redisKeyPrefix = "tubescout:search:"

// RedisStore keeps entries in Redis without expiry.
type RedisStore struct {
	rdb *redis.Client
}

func OpenRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: redis unreachable: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key domain.QueryKey) ([]domain.Video, bool, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	var videos []domain.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return videos, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key domain.QueryKey, videos []domain.Video) error {
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+string(key), data, 0).Err(); err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
