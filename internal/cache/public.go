package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache keys for the public surface. Everything a visitor sees derives from
// the links table and the profile_settings row, so one invalidation call
// covers the whole surface.
const (
	KeyPublicPage = "public:page"
	KeyManifest   = "public:manifest"
)

// PublicPageTTL bounds staleness when an invalidation is missed.
const PublicPageTTL = 5 * time.Minute

// New creates the cache backend for the public page. A configured Redis URL
// selects the Redis backend; any Redis failure falls back to the in-memory
// cache so the application still starts.
func New(redisURL string) Cacher {
	if redisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = redisURL
		opts.DefaultTTL = PublicPageTTL

		c, err := NewRedisCache(opts)
		if err == nil {
			slog.Info("using redis cache for public page", "prefix", opts.Prefix)
			return c
		}
		slog.Warn("redis cache unavailable, falling back to memory cache", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      PublicPageTTL,
		CleanupInterval: time.Minute,
	})
}

// InvalidatePublic drops the cached public page and manifest. Called after
// every admin mutation of links or profile settings.
func InvalidatePublic(ctx context.Context, c Cacher) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, KeyPublicPage); err != nil {
		slog.Warn("failed to invalidate public page cache", "error", err)
	}
	if err := c.Delete(ctx, KeyManifest); err != nil {
		slog.Warn("failed to invalidate manifest cache", "error", err)
	}
}
