package sequence

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKeyPrefix = "charter:booking-seq"

// RedisCounterStore uses INCR, which is atomic across all instances sharing the server.
type RedisCounterStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisCounterStore(rdb redis.Cmdable, prefix string) *RedisCounterStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisCounterStore{rdb: rdb, prefix: prefix}
}

func (s *RedisCounterStore) key(yearMonthKey string) string {
	return s.prefix + ":" + yearMonthKey
}

func (s *RedisCounterStore) GetAndIncrement(ctx context.Context, yearMonthKey string) (int64, error) {
	return s.rdb.Incr(ctx, s.key(yearMonthKey)).Result()
}
