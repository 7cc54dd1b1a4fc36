// Package cache provides key/value caches (in-memory and Redis) and
// CachedStore, a types.Store decorator that serves descriptor revisions
// from a cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// Cache defines the interface for all cache backends.
type Cache interface {
	// Get retrieves a value. Returns ErrCacheMiss when the key is absent
	// or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A zero ttl uses the configured
	// default; a negative ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Clear removes every value under the cache's prefix.
	Clear(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Config holds common configuration for cache backends.
type Config struct {
	// DefaultTTL is the default time-to-live for cached items
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Duration(types.DefaultCacheTTL) * time.Second,
		Prefix:     types.DefaultCachePrefix,
	}
}

// ErrCacheMiss is returned when a key is not found in the cache.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss checks if an error is a cache miss.
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}

// New builds the cache selected by cfg. It returns nil, nil when cfg
// selects no cache.
func New(cfg *types.CacheConfig) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	common := Config{
		DefaultTTL: time.Duration(cfg.GetTTL()) * time.Second,
		Prefix:     cfg.GetPrefix(),
	}
	switch cfg.GetBackend() {
	case types.CacheNone:
		return nil, nil
	case types.CacheMemory:
		return NewMemoryCacheWithConfig(common), nil
	case types.CacheRedis:
		rc, err := NewRedisCacheWithConfig(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Config:   common,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("cache backend %q: %w", cfg.Backend, types.ErrCacheBackendUnknown)
	}
}
