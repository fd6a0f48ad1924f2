// Package cache is a small JSON cache over Redis. A nil *Cache is valid
// and disables caching, so callers never branch on configuration.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New connects to Redis at the given URL. An empty URL returns a nil cache.
func New(url string, ttl time.Duration, logger *zap.SugaredLogger) (*Cache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// GetJSON loads a cached value into dst. Returns false on miss, disabled
// cache, or any Redis error (errors are logged, never surfaced).
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("cache get failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warnw("cache decode failed", "key", key, "err", err)
		return false
	}
	return true
}

// SetJSON stores a value with the configured TTL. Best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warnw("cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("cache set failed", "key", key, "err", err)
	}
}

// Delete drops keys, typically after a write invalidates them.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warnw("cache delete failed", "keys", keys, "err", err)
	}
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
