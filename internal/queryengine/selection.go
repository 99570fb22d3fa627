// Package queryengine is the columnar DGGS query engine: boolean
// predicates, set operations, and geodesic area over feature selections
// backed by internal/featurestore, reimplementing H3Engine's
// resolution-aware join logic in Go against the same DuckDB store.
package queryengine

import "github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"

// Selection is the tagged union of the engine's two argument shapes: an
// attribute-level filter over the features table, or an already
// materialized cell relation produced by Union/Intersection. Both are
// first-class arguments to every engine operation.
type Selection interface {
	isSelection()
}

// Filter selects feature rows by a caller-supplied SQL boolean
// expression evaluated against the features table (e.g.
// `source_file = 'parks.gpkg'`). Callers are trusted to pass a
// well-formed expression, not arbitrary user input — the engine does not
// sanitize it beyond embedding it in a WHERE clause.
type Filter struct {
	Where string
}

func (Filter) isSelection() {}

// CellRelation is an already-materialized single-column cell relation,
// the output of Union or Intersection, refined to Resolution so that its
// Cells are unambiguous for Area.
type CellRelation struct {
	Cells      cellset.Set
	Resolution int
}

func (CellRelation) isSelection() {}
