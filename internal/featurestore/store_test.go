package featurestore

import (
	"context"
	"testing"
)

// openTestStore opens an in-memory DuckDB instance and loads the
// spatial/h3 extensions. Extension installation needs network access on
// first run (DuckDB downloads them into its local extension cache), so
// tests skip rather than fail when that is unavailable.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Skipf("duckdb with spatial/h3 extensions unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateFeaturesTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateFeaturesTable(ctx); err != nil {
		t.Fatalf("CreateFeaturesTable: %v", err)
	}
	// idempotent
	if err := s.CreateFeaturesTable(ctx); err != nil {
		t.Fatalf("CreateFeaturesTable (second call): %v", err)
	}

	n, err := s.CountFeatures(ctx)
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected an empty table, got %d rows", n)
	}
}
