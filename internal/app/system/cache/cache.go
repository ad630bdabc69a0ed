// internal/app/system/cache/cache.go

// Package cache is a thin Redis layer for read-heavy payloads (collaboration
// details, challenge boards). A nil *Cache is valid and disables caching, so
// callers never branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/metrics"
)

// Cache wraps a Redis client with JSON helpers and scope versioning.
type Cache struct {
	rdb *redis.Client
	log *zap.Logger
	ttl time.Duration
}

// New connects to Redis at addr. When addr is empty or Redis does not answer,
// it returns nil and the app runs without a cache.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration, log *zap.Logger) *Cache {
	if addr == "" {
		log.Info("cache disabled (no redis address configured)")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available; running without cache",
			zap.String("addr", addr),
			zap.Error(err))
		_ = rdb.Close()
		return nil
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	log.Info("redis connected", zap.String("addr", addr))
	return &Cache{rdb: rdb, log: log, ttl: ttl}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// cacheName labels metrics by the first key segment ("collab", "challenges").
func cacheName(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// GetJSON loads key into dest. It reports false on a miss, a decode problem,
// or when the cache is disabled.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues(cacheName(key)).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache decode failed; dropping entry", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, key)
		metrics.CacheMisses.WithLabelValues(cacheName(key)).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(cacheName(key)).Inc()
	return true
}

// SetJSON stores v under key with the configured TTL. Failures are logged,
// never returned; the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.Error(err))
	}
}

// Version returns the current version of a scope. Scopes version whole key
// families so invalidation is one INCR instead of a key scan.
func (c *Cache) Version(ctx context.Context, scope string) int64 {
	if c == nil {
		return 0
	}
	v, err := c.rdb.Get(ctx, "ver:"+scope).Int64()
	if err != nil {
		// Missing key means the scope was never bumped.
		return 0
	}
	return v
}

// VersionedKey builds "<scope>:v<N>:<suffix>" using the scope's current version.
func (c *Cache) VersionedKey(ctx context.Context, scope, suffix string) string {
	return fmt.Sprintf("%s:v%d:%s", scope, c.Version(ctx, scope), suffix)
}

// Bump invalidates every key under scope by advancing its version. Stale
// entries age out via TTL.
func (c *Cache) Bump(ctx context.Context, scope string) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, "ver:"+scope).Err(); err != nil {
		c.log.Warn("cache version bump failed", zap.String("scope", scope), zap.Error(err))
	}
}
