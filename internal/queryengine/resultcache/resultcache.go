// Package resultcache caches DGGS query engine results behind a
// two-level cache: an in-process LRU (L1) in front of Redis (L2),
// mirroring the teacher's redisstore/cellindex layering but keyed on
// query shape instead of tile coordinates.
package resultcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/cache/redisstore"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/observability"
)

// Cache is a read-through L1/L2 byte cache. Callers own encoding; Cache
// only moves bytes between the in-process LRU and Redis.
type Cache struct {
	l1  *lru.Cache[string, []byte]
	l2  *redisstore.Client
	ttl time.Duration
}

// New builds a Cache with an L1 of the given capacity backed by l2. l2
// may be nil, in which case the cache degenerates to L1-only (useful for
// tests and for running without Redis configured).
func New(l1Size int, l2 *redisstore.Client, ttl time.Duration) (*Cache, error) {
	if l1Size <= 0 {
		l1Size = 1024
	}
	l1, err := lru.New[string, []byte](l1Size)
	if err != nil {
		return nil, fmt.Errorf("resultcache: new L1: %w", err)
	}
	return &Cache{l1: l1, l2: l2, ttl: ttl}, nil
}

// Get returns the cached value for key, checking L1 then L2. An L2 hit
// is promoted into L1 so the next lookup for the same key is in-process.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.l1.Get(key); ok {
		observability.AddCacheHits(1)
		return v, true, nil
	}
	if c.l2 == nil {
		observability.AddCacheMisses(1)
		return nil, false, nil
	}

	vals, err := c.l2.MGet(ctx, []string{key})
	if err != nil {
		return nil, false, fmt.Errorf("resultcache: L2 get %q: %w", key, err)
	}
	v, ok := vals[key]
	if !ok {
		observability.AddCacheMisses(1)
		return nil, false, nil
	}
	c.l1.Add(key, v)
	observability.AddCacheHits(1)
	return v, true, nil
}

// Set writes val to both cache levels.
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	c.l1.Add(key, val)
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Set(ctx, key, val, c.ttl); err != nil {
		return fmt.Errorf("resultcache: L2 set %q: %w", key, err)
	}
	return nil
}

// Purge drops every L1 entry. Called when a rebuild bumps the table
// generation; L2 entries are left to expire via ttl since a stale
// generation never appears in a freshly-built key again.
func (c *Cache) Purge() {
	c.l1.Purge()
}
