package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/holons/internal/paths"
	"github.com/mesh-intelligence/holons/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sqlite.sync_strategy"
	cfgKeyBatchSize     = "sqlite.batch_size"
	cfgKeyBatchInterval = "sqlite.batch_interval"
	cfgKeyCacheBackend  = "cache.backend"
	cfgKeyCacheTTL      = "cache.ttl"
	cfgKeyCachePrefix   = "cache.prefix"
	cfgKeyRedisAddr     = "cache.redis_addr"
	cfgKeyRedisPassword = "cache.redis_password"
	cfgKeyRedisDB       = "cache.redis_db"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend string             `yaml:"backend"`
	DataDir string             `yaml:"data_dir,omitempty"`
	SQLite  types.SQLiteConfig `yaml:"sqlite"`
	Cache   types.CacheConfig  `yaml:"cache"`
}

const configHeader = "# descriptors configuration\n" +
	"# data_dir is overridden by --data-dir; cache.backend is none, memory or redis.\n\n"

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		SQLite: types.SQLiteConfig{
			SyncStrategy:  types.SyncImmediate,
			BatchSize:     types.DefaultBatchSize,
			BatchInterval: types.DefaultBatchInterval,
		},
		Cache: types.CacheConfig{
			Backend: types.CacheNone,
			TTL:     types.DefaultCacheTTL,
			Prefix:  types.DefaultCachePrefix,
		},
	}
}

// loadConfig reads config.yaml from configDir with viper and resolves the
// data directory. A missing config.yaml is not an error.
func loadConfig(configDir, dataDirFlag string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, usageError(fmt.Errorf("read config: %w", err))
		}
	}

	dataDir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: dataDir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  v.GetString(cfgKeySyncStrategy),
			BatchSize:     v.GetInt(cfgKeyBatchSize),
			BatchInterval: v.GetInt(cfgKeyBatchInterval),
		},
		Cache: &types.CacheConfig{
			Backend:       v.GetString(cfgKeyCacheBackend),
			TTL:           v.GetInt(cfgKeyCacheTTL),
			Prefix:        v.GetString(cfgKeyCachePrefix),
			RedisAddr:     v.GetString(cfgKeyRedisAddr),
			RedisPassword: v.GetString(cfgKeyRedisPassword),
			RedisDB:       v.GetInt(cfgKeyRedisDB),
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, usageError(fmt.Errorf("config %s: %w", v.ConfigFileUsed(), err))
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values unless it
// already exists. It reports whether the file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(defaultConfigFile(dataDir))
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
