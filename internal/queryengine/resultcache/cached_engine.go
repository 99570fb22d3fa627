package resultcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine"
)

// CachedEngine decorates a queryengine.Engine with the two-level result
// cache, keyed by operation, selection shape, and the current table
// generation. Cell-level set operations (Union, Intersection) are not
// cached: their results are as large as the relations themselves, so the
// cache would mostly just duplicate the features table.
type CachedEngine struct {
	engine     *queryengine.Engine
	cache      *Cache
	generation func() uint64
}

// NewCachedEngine wraps engine. generation returns the current rebuild
// generation; callers bump it (and Purge the cache's L1) whenever the
// backing features table is replaced.
func NewCachedEngine(engine *queryengine.Engine, cache *Cache, generation func() uint64) *CachedEngine {
	return &CachedEngine{engine: engine, cache: cache, generation: generation}
}

func (c *CachedEngine) gen() uint64 {
	if c.generation == nil {
		return 0
	}
	return c.generation()
}

func cachedJSON[T any](ctx context.Context, c *Cache, key string, compute func() (T, error)) (T, error) {
	var zero T
	if raw, ok, err := c.Get(ctx, key); err != nil {
		return zero, err
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return zero, fmt.Errorf("resultcache: decode cached value for %q: %w", key, err)
		}
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return zero, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("resultcache: encode value for %q: %w", key, err)
	}
	if err := c.Set(ctx, key, raw); err != nil {
		return zero, err
	}
	return v, nil
}

func (c *CachedEngine) Intersects(ctx context.Context, a, b queryengine.Selection) (bool, error) {
	key := BuildKey(c.gen(), "intersects", a, b)
	return cachedJSON(ctx, c.cache, key, func() (bool, error) { return c.engine.Intersects(ctx, a, b) })
}

func (c *CachedEngine) Within(ctx context.Context, a, b queryengine.Selection) (bool, error) {
	key := BuildKey(c.gen(), "within", a, b)
	return cachedJSON(ctx, c.cache, key, func() (bool, error) { return c.engine.Within(ctx, a, b) })
}

func (c *CachedEngine) Contains(ctx context.Context, a, b queryengine.Selection) (bool, error) {
	key := BuildKey(c.gen(), "contains", a, b)
	return cachedJSON(ctx, c.cache, key, func() (bool, error) { return c.engine.Contains(ctx, a, b) })
}

func (c *CachedEngine) Touches(ctx context.Context, a, b queryengine.Selection) (bool, error) {
	key := BuildKey(c.gen(), "touches", a, b)
	return cachedJSON(ctx, c.cache, key, func() (bool, error) { return c.engine.Touches(ctx, a, b) })
}

func (c *CachedEngine) Area(ctx context.Context, s queryengine.Selection, unit queryengine.AreaUnit) (float64, error) {
	key := BuildKey(c.gen(), "area:"+unit.String(), s)
	return cachedJSON(ctx, c.cache, key, func() (float64, error) { return c.engine.Area(ctx, s, unit) })
}

func (c *CachedEngine) TotalArea(ctx context.Context, r int, unit queryengine.AreaUnit) (float64, error) {
	key := BuildKey(c.gen(), fmt.Sprintf("total_area:%d:%s", r, unit))
	return cachedJSON(ctx, c.cache, key, func() (float64, error) { return c.engine.TotalArea(ctx, r, unit) })
}

func (c *CachedEngine) CountCells(ctx context.Context, where string) (int64, error) {
	key := BuildKey(c.gen(), "count_cells", queryengine.Filter{Where: where})
	return cachedJSON(ctx, c.cache, key, func() (int64, error) { return c.engine.CountCells(ctx, where) })
}

func (c *CachedEngine) CountFeatures(ctx context.Context, where string) (int64, error) {
	key := BuildKey(c.gen(), "count_features", queryengine.Filter{Where: where})
	return cachedJSON(ctx, c.cache, key, func() (int64, error) { return c.engine.CountFeatures(ctx, where) })
}

func (c *CachedEngine) Resolutions(ctx context.Context, where string) ([]int, error) {
	key := BuildKey(c.gen(), "resolutions", queryengine.Filter{Where: where})
	return cachedJSON(ctx, c.cache, key, func() ([]int, error) { return c.engine.Resolutions(ctx, where) })
}

// Union and Intersection bypass the cache and delegate directly.
func (c *CachedEngine) Union(ctx context.Context, s queryengine.Selection) (queryengine.CellRelation, error) {
	return c.engine.Union(ctx, s)
}

func (c *CachedEngine) Intersection(ctx context.Context, a, b queryengine.Selection) (queryengine.CellRelation, error) {
	return c.engine.Intersection(ctx, a, b)
}
