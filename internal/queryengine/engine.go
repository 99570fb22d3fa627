package queryengine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/predicates"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// Engine answers spatial queries over a features table. It is a thin
// layer: fetching rows is server-side SQL, but the resolution-aware set
// reasoning itself is delegated to internal/predicates (for booleans)
// and internal/h3kernel (for the parent/children expansion union and
// intersection need), matching the engine's documented data flow.
type Engine struct {
	db *sql.DB
}

// New wraps an open DuckDB connection holding a features table (as
// created by internal/featurestore.Store).
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// cellRow is one (cell, resolution) pair belonging to a selection.
type cellRow struct {
	Cell       cellset.Cell
	Resolution int
}

// fetchCells runs the given WHERE clause against the features table and
// flattens every row's h3_cells array into one (cell, resolution) row
// per cell, the Go equivalent of joining h3_index to features in the
// original normalized schema.
func (e *Engine) fetchCells(ctx context.Context, where string) ([]cellRow, error) {
	query := fmt.Sprintf(`
		SELECT h3_resolution, UNNEST(h3_cells) AS cell
		FROM features
		WHERE %s
	`, where)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch cells for filter %q: %w", where, err)
	}
	defer rows.Close()

	var out []cellRow
	for rows.Next() {
		var res int
		var cell uint64
		if err := rows.Scan(&res, &cell); err != nil {
			return nil, fmt.Errorf("scan cell row: %w", err)
		}
		out = append(out, cellRow{Cell: cellset.Cell(cell), Resolution: res})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cell rows: %w", err)
	}
	return out, nil
}

// resolveRows materializes a Selection into its raw (cell, resolution)
// rows: a query against features for Filter, or a direct replay of the
// relation's cells for CellRelation.
func (e *Engine) resolveRows(ctx context.Context, s Selection) ([]cellRow, error) {
	switch sel := s.(type) {
	case Filter:
		return e.fetchCells(ctx, sel.Where)
	case CellRelation:
		rows := make([]cellRow, sel.Cells.Len())
		for i, c := range sel.Cells.Cells() {
			rows[i] = cellRow{Cell: c, Resolution: sel.Resolution}
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("queryengine: unsupported selection type %T", s)
	}
}

func rMin(rows []cellRow) (int, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	m := rows[0].Resolution
	for _, r := range rows[1:] {
		if r.Resolution < m {
			m = r.Resolution
		}
	}
	return m, true
}

func rMax(rows []cellRow) (int, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	m := rows[0].Resolution
	for _, r := range rows[1:] {
		if r.Resolution > m {
			m = r.Resolution
		}
	}
	return m, true
}

// coarsen maps every row to its ancestor at target via cell_to_parent,
// de-duplicating. target must be <= every row's own resolution.
func coarsen(rows []cellRow, target int) (cellset.Set, error) {
	out := make([]cellset.Cell, 0, len(rows))
	for _, r := range rows {
		p, err := h3kernel.CellToParent(r.Cell, target)
		if err != nil {
			return cellset.Set{}, fmt.Errorf("coarsen cell %s to resolution %d: %w", r.Cell, target, err)
		}
		out = append(out, p)
	}
	return cellset.NewSet(out...), nil
}

// refine expands every row below target into its descendants at target
// via cell_to_children, and keeps rows already at target unchanged, the
// union/intersection "refined" representation.
func refine(rows []cellRow, target int) (cellset.Set, error) {
	result := cellset.NewSet()
	for _, r := range rows {
		children, err := h3kernel.CellToChildren(r.Cell, target)
		if err != nil {
			return cellset.Set{}, fmt.Errorf("refine cell %s to resolution %d: %w", r.Cell, target, err)
		}
		result = result.Union(children)
	}
	return result, nil
}

// Intersects reports whether A and B's cell sets overlap once both are
// normalized to r* = min(r_min(A), r_min(B)).
func (e *Engine) Intersects(ctx context.Context, a, b Selection) (bool, error) {
	setA, setB, ok, err := e.normalizeForBooleanPredicate(ctx, a, b)
	if err != nil || !ok {
		return false, err
	}
	return predicates.Intersects(setA, setB)
}

// Within reports whether every cell of A (at r*) is contained in B.
func (e *Engine) Within(ctx context.Context, a, b Selection) (bool, error) {
	setA, setB, ok, err := e.normalizeForBooleanPredicate(ctx, a, b)
	if err != nil || !ok {
		return false, err
	}
	return predicates.Within(setA, setB)
}

// Contains is the identity contains(A, B) == within(B, A).
func (e *Engine) Contains(ctx context.Context, a, b Selection) (bool, error) {
	return e.Within(ctx, b, a)
}

// Touches reports whether A and B are disjoint but grid-adjacent at r*.
func (e *Engine) Touches(ctx context.Context, a, b Selection) (bool, error) {
	setA, setB, ok, err := e.normalizeForBooleanPredicate(ctx, a, b)
	if err != nil || !ok {
		return false, nil
	}
	return predicates.Touches(setA, setB)
}

func (e *Engine) normalizeForBooleanPredicate(ctx context.Context, a, b Selection) (cellset.Set, cellset.Set, bool, error) {
	rowsA, err := e.resolveRows(ctx, a)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, false, err
	}
	rowsB, err := e.resolveRows(ctx, b)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, false, err
	}
	minA, okA := rMin(rowsA)
	minB, okB := rMin(rowsB)
	if !okA || !okB {
		return cellset.Set{}, cellset.Set{}, false, nil
	}

	target := minA
	if minB < target {
		target = minB
	}

	setA, err := coarsen(rowsA, target)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, false, err
	}
	setB, err := coarsen(rowsB, target)
	if err != nil {
		return cellset.Set{}, cellset.Set{}, false, err
	}
	return setA, setB, true, nil
}

// Union returns S's cells refined to r_max(S): a single-resolution
// relation suitable for Area or further set operations.
func (e *Engine) Union(ctx context.Context, s Selection) (CellRelation, error) {
	rows, err := e.resolveRows(ctx, s)
	if err != nil {
		return CellRelation{}, err
	}
	target, ok := rMax(rows)
	if !ok {
		return CellRelation{}, nil
	}
	set, err := refine(rows, target)
	if err != nil {
		return CellRelation{}, err
	}
	return CellRelation{Cells: set, Resolution: target}, nil
}

// Intersection computes A ∩ B by joining at r_join = min(r_min(A),
// r_min(B)) and returning the matching cells from the finer side,
// refined to r_fine = max(r_max(A), r_max(B)).
func (e *Engine) Intersection(ctx context.Context, a, b Selection) (CellRelation, error) {
	rowsA, err := e.resolveRows(ctx, a)
	if err != nil {
		return CellRelation{}, err
	}
	rowsB, err := e.resolveRows(ctx, b)
	if err != nil {
		return CellRelation{}, err
	}

	minA, okA := rMin(rowsA)
	maxA, _ := rMax(rowsA)
	minB, okB := rMin(rowsB)
	maxB, _ := rMax(rowsB)
	if !okA || !okB {
		return CellRelation{}, nil
	}

	rJoin := minA
	if minB < rJoin {
		rJoin = minB
	}
	rFine := maxA
	if maxB > rFine {
		rFine = maxB
	}

	fineRows, coarseRows := rowsA, rowsB
	if maxB > maxA {
		fineRows, coarseRows = rowsB, rowsA
	}

	coarseSet, err := coarsen(coarseRows, rJoin)
	if err != nil {
		return CellRelation{}, err
	}

	var matched []cellRow
	for _, f := range fineRows {
		parent, err := h3kernel.CellToParent(f.Cell, rJoin)
		if err != nil {
			return CellRelation{}, fmt.Errorf("intersection: %w", err)
		}
		if coarseSet.Contains(parent) {
			matched = append(matched, f)
		}
	}

	refined, err := refine(matched, rFine)
	if err != nil {
		return CellRelation{}, err
	}
	return CellRelation{Cells: refined, Resolution: rFine}, nil
}

// CountCells returns the number of H3 cells across every row matched by
// the filter (not de-duplicated across features, matching count_cells).
func (e *Engine) CountCells(ctx context.Context, where string) (int64, error) {
	var n int64
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM (SELECT UNNEST(h3_cells) AS cell FROM features WHERE %s)
	`, where)
	if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cells: %w", err)
	}
	return n, nil
}

// CountFeatures returns the number of distinct features matched by the
// filter.
func (e *Engine) CountFeatures(ctx context.Context, where string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(DISTINCT feature_id) FROM features WHERE %s", where)
	if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}

// Resolutions returns the distinct H3 resolutions present among features
// matched by the filter, ascending.
func (e *Engine) Resolutions(ctx context.Context, where string) ([]int, error) {
	query := fmt.Sprintf("SELECT DISTINCT h3_resolution FROM features WHERE %s ORDER BY h3_resolution", where)
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("resolutions: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var res int
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return out, nil
}
