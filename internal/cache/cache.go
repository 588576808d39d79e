// Package cache provides the page cache used to memoize the rendered
// global feed. Entries live until their TTL expires or the cache is
// explicitly flushed; nothing invalidates them on writes, so readers may
// see a stale feed for at most one TTL window.
package cache

import (
	"context"
	"time"
)

const keyPrefix = "page:"

// PageCache is a keyed store of rendered response bodies.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, body []byte, ttl time.Duration)
	Flush(ctx context.Context)
}

// Key builds the cache key for a rendered page from its route path and
// raw query string.
func Key(path, rawQuery string) string {
	if rawQuery == "" {
		return keyPrefix + path
	}
	return keyPrefix + path + "?" + rawQuery
}
