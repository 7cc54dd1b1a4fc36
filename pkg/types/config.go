package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend      string        `json:"backend" yaml:"backend"`
	DataDir      string        `json:"data_dir" yaml:"data_dir"`
	SQLiteConfig *SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Cache        *CacheConfig  `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies control when the SQLite backend persists JSONL files.
const (
	SyncImmediate = "immediate" // persist after every write
	SyncOnClose   = "on_close"  // persist on Detach
	SyncBatch     = "batch"     // persist every BatchSize writes or BatchInterval seconds
)

// Cache backends for the record cache.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default values applied when a field is unset.
const (
	DefaultBatchSize     = 100
	DefaultBatchInterval = 5    // seconds
	DefaultCacheTTL      = 3600 // seconds
	DefaultCachePrefix   = "holons:"
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrCacheBackendUnknown  = errors.New("unknown cache backend")
	ErrCacheAddrEmpty       = errors.New("redis cache requires an address")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownSyncStrategies = map[string]bool{
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

var knownCacheBackends = map[string]bool{
	CacheNone:   true,
	CacheMemory: true,
	CacheRedis:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if err := c.SQLiteConfig.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// SQLiteConfig holds SQLite backend options. A nil *SQLiteConfig means
// defaults.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval"` // seconds
}

// Validate checks the sync strategy and, for batch, its parameters.
func (s *SQLiteConfig) Validate() error {
	if s == nil {
		return nil
	}
	if s.SyncStrategy != "" && !knownSyncStrategies[s.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if s.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if s.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// GetSyncStrategy returns the configured strategy, defaulting to immediate.
func (s *SQLiteConfig) GetSyncStrategy() string {
	if s == nil || s.SyncStrategy == "" {
		return SyncImmediate
	}
	return s.SyncStrategy
}

// GetBatchSize returns the configured batch size or DefaultBatchSize.
func (s *SQLiteConfig) GetBatchSize() int {
	if s == nil || s.BatchSize == 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// GetBatchInterval returns the configured interval in seconds or
// DefaultBatchInterval.
func (s *SQLiteConfig) GetBatchInterval() int {
	if s == nil || s.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return s.BatchInterval
}

// CacheConfig selects and configures the record cache. A nil *CacheConfig
// means no cache.
type CacheConfig struct {
	Backend       string `json:"backend" yaml:"backend"`
	TTL           int    `json:"ttl" yaml:"ttl"` // seconds
	Prefix        string `json:"prefix" yaml:"prefix"`
	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
}

// Validate checks the cache backend name and its required parameters.
func (c *CacheConfig) Validate() error {
	if c == nil || c.Backend == "" {
		return nil
	}
	if !knownCacheBackends[c.Backend] {
		return ErrCacheBackendUnknown
	}
	if c.Backend == CacheRedis && c.RedisAddr == "" {
		return ErrCacheAddrEmpty
	}
	return nil
}

// GetBackend returns the cache backend, defaulting to none.
func (c *CacheConfig) GetBackend() string {
	if c == nil || c.Backend == "" {
		return CacheNone
	}
	return c.Backend
}

// GetTTL returns the entry TTL in seconds or DefaultCacheTTL.
func (c *CacheConfig) GetTTL() int {
	if c == nil || c.TTL == 0 {
		return DefaultCacheTTL
	}
	return c.TTL
}

// GetPrefix returns the key prefix or DefaultCachePrefix.
func (c *CacheConfig) GetPrefix() string {
	if c == nil || c.Prefix == "" {
		return DefaultCachePrefix
	}
	return c.Prefix
}
