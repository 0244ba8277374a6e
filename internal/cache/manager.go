package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Key prefixes for the content caches. Invalidation works on whole prefixes
// because list responses depend on filters encoded into the key.
const (
	PrefixCountries = "countries:"
	PrefixPosts     = "posts:"
	PrefixServices  = "services:"
)

// Options configures the cache manager.
type Options struct {
	// RedisURL selects the Redis backend when non-empty.
	RedisURL string

	// Prefix is the Redis key prefix.
	Prefix string

	// TTL is the default TTL for content entries.
	TTL time.Duration
}

// Manager wraps a cache backend with JSON helpers and domain invalidation.
type Manager struct {
	backend Cache
	ttl     time.Duration
}

// NewManager creates a manager over Redis when configured, falling back to
// the in-memory backend otherwise (including when Redis is unreachable).
func NewManager(opts Options) *Manager {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	if opts.RedisURL != "" {
		backend, err := NewRedisCacheFromURL(opts.RedisURL, opts.Prefix, ttl)
		if err == nil {
			slog.Info("using redis cache", "prefix", opts.Prefix)
			return &Manager{backend: backend, ttl: ttl}
		}
		slog.Warn("redis cache unavailable, falling back to memory", "error", err)
	}

	return &Manager{
		backend: NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      ttl,
			MaxSize:         10000,
			CleanupInterval: time.Minute,
		}),
		ttl: ttl,
	}
}

// GetJSON unmarshals a cached entry into dest. Returns false on a miss or
// any backend error; cache failures must never fail the request.
func (m *Manager) GetJSON(ctx context.Context, key string, dest any) bool {
	data, err := m.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			slog.Warn("cache get failed", "category", "cache", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		_ = m.backend.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals and stores a value under the default TTL. Best effort.
func (m *Manager) SetJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := m.backend.Set(ctx, key, data, m.ttl); err != nil {
		slog.Warn("cache set failed", "category", "cache", "key", key, "error", err)
	}
}

// InvalidateCountries drops all cached country responses. Called after any
// country mutation, including like toggles.
func (m *Manager) InvalidateCountries(ctx context.Context) {
	if err := m.backend.DeleteByPrefix(ctx, PrefixCountries); err != nil {
		slog.Warn("cache invalidation failed", "category", "cache", "prefix", PrefixCountries, "error", err)
	}
}

// InvalidatePosts drops all cached blog responses.
func (m *Manager) InvalidatePosts(ctx context.Context) {
	if err := m.backend.DeleteByPrefix(ctx, PrefixPosts); err != nil {
		slog.Warn("cache invalidation failed", "category", "cache", "prefix", PrefixPosts, "error", err)
	}
}

// ClearAll drops every cached entry.
func (m *Manager) ClearAll(ctx context.Context) {
	if err := m.backend.Clear(ctx); err != nil {
		slog.Warn("cache clear failed", "category", "cache", "error", err)
	}
}

// Stats returns backend statistics when available.
func (m *Manager) Stats() (Stats, bool) {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats(), true
	}
	return Stats{}, false
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
