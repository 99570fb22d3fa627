// Package featurestore holds the columnar `features` table: one row per
// ingested geometry, its H3 cell set, and the resolution it was indexed
// at. Storage is DuckDB with the spatial and h3 community extensions
// loaded, following the ingest pipeline this package ports.
package featurestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Store wraps a DuckDB connection holding the features table.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) a DuckDB database at path and loads the
// spatial and h3 community extensions.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}

	for _, stmt := range []string{
		"INSTALL spatial",
		"LOAD spatial",
		"INSTALL h3 FROM community",
		"LOAD h3",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("duckdb setup %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying DuckDB connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateFeaturesTable creates the features table if it does not already
// exist. The schema mirrors create_features_table: a native GEOMETRY
// column alongside the H3 cell-set columns the query engine scans.
func (s *Store) CreateFeaturesTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS features (
			feature_id INTEGER PRIMARY KEY,
			source_file VARCHAR,
			geometry GEOMETRY,
			h3_cells UBIGINT[],
			h3_resolution TINYINT,
			h3_cell_count INTEGER
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create features table: %w", err)
	}
	return nil
}

// CountFeatures returns the total number of rows in the features table.
func (s *Store) CountFeatures(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM features").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}

// ResolutionCounts reports, for every resolution present in the store,
// how many features and how many total H3 cells were indexed at it.
type ResolutionCount struct {
	Resolution int
	Features   int64
	Cells      int64
}

// ResolutionCounts returns ResolutionCount, one row per distinct
// resolution, ascending — the Go equivalent of print_statistics'
// per-resolution breakdown.
func (s *Store) ResolutionCounts(ctx context.Context) ([]ResolutionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h3_resolution, COUNT(*), COALESCE(SUM(h3_cell_count), 0)
		FROM features
		GROUP BY h3_resolution
		ORDER BY h3_resolution
	`)
	if err != nil {
		return nil, fmt.Errorf("resolution counts: %w", err)
	}
	defer rows.Close()

	var out []ResolutionCount
	for rows.Next() {
		var rc ResolutionCount
		if err := rows.Scan(&rc.Resolution, &rc.Features, &rc.Cells); err != nil {
			return nil, fmt.Errorf("scan resolution count: %w", err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolution counts: %w", err)
	}
	return out, nil
}

// DB exposes the underlying connection for internal/queryengine, which
// issues ad hoc SELECTs the store itself does not wrap.
func (s *Store) DB() *sql.DB { return s.db }
