package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a PageCache backed by a shared Redis instance, for deployments
// running more than one server process.
type Redis struct {
	rdb *redis.Client
}

// NewRedis creates a Redis-backed page cache on an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

func (r *Redis) Put(ctx context.Context, key string, body []byte, ttl time.Duration) {
	r.rdb.Set(ctx, key, body, ttl)
}

// Flush drops every cached page. Only keys under the page prefix are
// touched; the Redis instance may be shared with other data.
func (r *Redis) Flush(ctx context.Context) {
	keys, err := r.rdb.Keys(ctx, keyPrefix+"*").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return
	}
	if len(keys) > 0 {
		r.rdb.Del(ctx, keys...)
	}
}
