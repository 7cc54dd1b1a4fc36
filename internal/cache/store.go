package cache

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// Key namespaces inside the cache prefix.
const (
	revisionKey = "rev:"    // action hash → Record
	originalKey = "orig:"   // action hash → original hash
	latestKey   = "latest:" // original hash → latest action hash
)

// CachedStore decorates a types.Store with a Cache. Records never change
// once written, so they are cached by action hash indefinitely; the
// latest pointer of a chain is moved by Update and dropped by Delete.
// Writers that bypass the CachedStore leave latest pointers stale until
// they expire.
type CachedStore struct {
	store  types.Store
	cache  Cache
	logger *zap.SugaredLogger
}

var _ types.Store = (*CachedStore)(nil)

// NewCachedStore wraps store. A nil logger discards log output.
func NewCachedStore(store types.Store, cache Cache, logger *zap.SugaredLogger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedStore{store: store, cache: cache, logger: logger}
}

// Create writes through and caches the new record as its chain's latest.
func (c *CachedStore) Create(ctx context.Context, entryType string, entry []byte) (types.Record, error) {
	rec, err := c.store.Create(ctx, entryType, entry)
	if err != nil {
		return types.Record{}, err
	}
	c.remember(ctx, rec, rec.ActionHash)
	return rec, nil
}

// Get serves the chain's latest revision from the cache when the hash,
// its original and the latest pointer are all cached; otherwise it reads
// the store and fills the cache.
func (c *CachedStore) Get(ctx context.Context, hash types.ActionHash) (types.Record, error) {
	if rec, ok := c.lookup(ctx, hash); ok {
		return rec, nil
	}
	rec, err := c.store.Get(ctx, hash)
	if err != nil {
		return types.Record{}, err
	}
	c.remember(ctx, rec, hash)
	return rec, nil
}

// Update writes through and moves the chain's latest pointer.
func (c *CachedStore) Update(ctx context.Context, original, previous types.ActionHash, entry []byte) (types.Record, error) {
	rec, err := c.store.Update(ctx, original, previous, entry)
	if err != nil {
		return types.Record{}, err
	}
	c.remember(ctx, rec, rec.ActionHash)
	return rec, nil
}

// Delete writes through and drops the chain's latest pointer, so later
// Gets reach the store and see the tombstone.
func (c *CachedStore) Delete(ctx context.Context, hash types.ActionHash) (types.ActionHash, error) {
	current, err := c.store.Get(ctx, hash)
	if err != nil {
		return types.ActionHash{}, err
	}
	deleteHash, err := c.store.Delete(ctx, hash)
	if err != nil {
		return types.ActionHash{}, err
	}
	if err := c.cache.Delete(ctx, latestKey+current.OriginalHash.String()); err != nil {
		c.logger.Warnw("cache invalidation failed", "original", current.OriginalHash.String(), "error", err)
	}
	return deleteHash, nil
}

// GetAll always reads the store.
func (c *CachedStore) GetAll(ctx context.Context, index string) ([]types.Record, error) {
	return c.store.GetAll(ctx, index)
}

// lookup resolves hash → original → latest → record through the cache.
func (c *CachedStore) lookup(ctx context.Context, hash types.ActionHash) (types.Record, bool) {
	original, ok := c.getHash(ctx, originalKey+hash.String())
	if !ok {
		return types.Record{}, false
	}
	latest, ok := c.getHash(ctx, latestKey+original.String())
	if !ok {
		return types.Record{}, false
	}
	raw, err := c.cache.Get(ctx, revisionKey+latest.String())
	if err != nil {
		c.logMiss(err, revisionKey+latest.String())
		return types.Record{}, false
	}
	var rec types.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.logger.Warnw("cached record unreadable", "action_hash", latest.String(), "error", err)
		return types.Record{}, false
	}
	c.logger.Debugw("cache hit", "action_hash", hash.String(), "latest", latest.String())
	return rec, true
}

// remember caches rec, maps requested and rec's own hash to the original,
// and points the chain's latest at rec.
func (c *CachedStore) remember(ctx context.Context, rec types.Record, requested types.ActionHash) {
	raw, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warnw("encoding record for cache", "action_hash", rec.ActionHash.String(), "error", err)
		return
	}
	original := []byte(rec.OriginalHash.String())
	sets := []struct {
		key   string
		value []byte
	}{
		{revisionKey + rec.ActionHash.String(), raw},
		{originalKey + rec.ActionHash.String(), original},
		{originalKey + requested.String(), original},
		{latestKey + rec.OriginalHash.String(), []byte(rec.ActionHash.String())},
	}
	for _, s := range sets {
		if err := c.cache.Set(ctx, s.key, s.value, 0); err != nil {
			c.logger.Warnw("cache write failed", "key", s.key, "error", err)
			return
		}
	}
}

func (c *CachedStore) getHash(ctx context.Context, key string) (types.ActionHash, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logMiss(err, key)
		return types.ActionHash{}, false
	}
	h, err := types.ParseActionHash(string(raw))
	if err != nil {
		c.logger.Warnw("cached hash unreadable", "key", key, "error", err)
		return types.ActionHash{}, false
	}
	return h, true
}

func (c *CachedStore) logMiss(err error, key string) {
	if IsCacheMiss(err) {
		return
	}
	c.logger.Warnw("cache read failed", "key", key, "error", err)
}
