// Package dedupe 基于 Redis SETNX 的一次性事件标记。
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "thrive:dedupe:"

// Store 记录已经处理过的事件 ID
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Claim 第一次看到 (scope, id) 时返回 true
func (s *Store) Claim(ctx context.Context, scope, id string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key(scope, id), time.Now().UTC().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe claim %s/%s: %w", scope, id, err)
	}
	return ok, nil
}

// Release 处理失败时释放标记，允许网关重试
func (s *Store) Release(ctx context.Context, scope, id string) error {
	return s.rdb.Del(ctx, key(scope, id)).Err()
}

func key(scope, id string) string {
	return keyPrefix + scope + ":" + id
}
