package queryengine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// ErrMixedResolution is returned by Area when a feature selection spans
// more than one H3 resolution: the caller must call Union first to get
// an unambiguous, single-resolution relation.
var ErrMixedResolution = errors.New("queryengine: selection spans multiple resolutions, call Union first")

// AreaUnit selects the unit Area and TotalArea report in.
type AreaUnit int

const (
	UnitM2 AreaUnit = iota
	UnitKm2
)

func (u AreaUnit) String() string {
	if u == UnitKm2 {
		return "km2"
	}
	return "m2"
}

// ParseAreaUnit accepts "m2"/"m²" and "km2"/"km²" (case-insensitive).
func ParseAreaUnit(s string) (AreaUnit, error) {
	switch strings.ToLower(s) {
	case "m2", "m²", "":
		return UnitM2, nil
	case "km2", "km²":
		return UnitKm2, nil
	default:
		return 0, fmt.Errorf("queryengine: unknown area unit %q", s)
	}
}

// Area sums cell_area over the distinct cells of a selection, in unit. A
// CellRelation (the output of Union/Intersection) is assumed already
// refined to a single resolution and is summed directly. A Filter
// selection is only well-defined when every matched feature shares one
// resolution; ErrMixedResolution otherwise.
func (e *Engine) Area(ctx context.Context, s Selection, unit AreaUnit) (float64, error) {
	switch sel := s.(type) {
	case CellRelation:
		return sumCellArea(sel.Cells.Cells(), unit)

	case Filter:
		rows, err := e.resolveRows(ctx, sel)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		res := rows[0].Resolution
		for _, r := range rows[1:] {
			if r.Resolution != res {
				return 0, ErrMixedResolution
			}
		}
		cells := make([]cellset.Cell, len(rows))
		for i, r := range rows {
			cells[i] = r.Cell
		}
		set := cellset.NewSet(cells...)
		return sumCellArea(set.Cells(), unit)

	default:
		return 0, fmt.Errorf("queryengine: unsupported selection type %T", s)
	}
}

// TotalArea returns the area of the entire table's coverage in unit,
// normalized to resolution r: every cell across every feature row is
// mapped to its representative at r (coarsened or refined as needed),
// deduplicated across all features, then area-summed.
func (e *Engine) TotalArea(ctx context.Context, r int, unit AreaUnit) (float64, error) {
	if err := h3kernel.ValidateResolution(r); err != nil {
		return 0, err
	}

	rows, err := e.fetchCells(ctx, "TRUE")
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var coarser, finer, atRes []cellRow
	for _, row := range rows {
		switch {
		case row.Resolution > r:
			coarser = append(coarser, row)
		case row.Resolution < r:
			finer = append(finer, row)
		default:
			atRes = append(atRes, row)
		}
	}

	set, err := coarsen(coarser, r)
	if err != nil {
		return 0, fmt.Errorf("total area: coarsen: %w", err)
	}
	refined, err := refine(finer, r)
	if err != nil {
		return 0, fmt.Errorf("total area: refine: %w", err)
	}
	exact, err := coarsen(atRes, r) // identity: every row already at r
	if err != nil {
		return 0, fmt.Errorf("total area: identity: %w", err)
	}

	all := set.Union(refined).Union(exact)
	return sumCellArea(all.Cells(), unit)
}

// sumCellArea sums cell_area over distinct cells in unit, skipping
// none — an invalid cell here is a store-integrity bug, not a user
// error, so it is surfaced rather than silently dropped.
func sumCellArea(cells []cellset.Cell, unit AreaUnit) (float64, error) {
	areaFn := h3kernel.CellAreaM2
	if unit == UnitKm2 {
		areaFn = h3kernel.CellAreaKm2
	}
	var total float64
	for _, c := range cells {
		area, err := areaFn(c)
		if err != nil {
			return 0, fmt.Errorf("cell area for %s: %w", c, err)
		}
		total += area
	}
	return total, nil
}
