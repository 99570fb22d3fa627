package resultcache

import (
	"context"
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine"
)

func TestCache_L1OnlyRoundTrip(t *testing.T) {
	c, err := New(8, nil, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Fatalf("expected value %q, got %q", "v", v)
	}

	c.Purge()
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected Purge to evict L1 entries")
	}
}

func TestBuildKey_StableAndDistinguishesSelections(t *testing.T) {
	a := queryengine.Filter{Where: "source_file = 'a.gpkg'"}
	b := queryengine.Filter{Where: "source_file = 'b.gpkg'"}

	k1 := BuildKey(1, "intersects", a, b)
	k2 := BuildKey(1, "intersects", a, b)
	if k1 != k2 {
		t.Fatalf("expected identical inputs to produce identical keys: %q vs %q", k1, k2)
	}

	k3 := BuildKey(1, "intersects", b, a)
	if k1 == k3 {
		t.Fatalf("expected argument order to change the key")
	}

	k4 := BuildKey(2, "intersects", a, b)
	if k1 == k4 {
		t.Fatalf("expected generation to change the key")
	}
}
