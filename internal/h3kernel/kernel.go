// Package h3kernel is the total-function façade over github.com/uber/h3-go/v4
// that the rest of the engine builds on: cell parsing/validation, parent/
// child traversal, polyfill under the four containment modes, grid
// distance/path, and cell area. Exported functions that can fail return a
// wrapped error instead of panicking on malformed input, matching the rest
// of the engine's failure discipline.
package h3kernel

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// MinResolution and MaxResolution bound the valid H3 resolution range.
const (
	MinResolution = 0
	MaxResolution = 15
)

// ContainmentMode selects how a polygon's boundary cells are decided
// during polyfill (spec.md §4.1).
type ContainmentMode int

const (
	// Center includes a cell iff its centroid falls inside the polygon.
	Center ContainmentMode = iota
	// Full includes a cell iff it is entirely inside the polygon.
	Full
	// Overlapping includes a cell iff it intersects the polygon at all.
	Overlapping
	// OverlappingBBox includes a cell iff it intersects the polygon's
	// bounding box (cheapest, loosest mode).
	OverlappingBBox
)

func (m ContainmentMode) String() string {
	switch m {
	case Center:
		return "CENTER"
	case Full:
		return "FULL"
	case Overlapping:
		return "OVERLAPPING"
	case OverlappingBBox:
		return "OVERLAPPING_BBOX"
	default:
		return "UNKNOWN"
	}
}

// avgCellAreaM2 is the published H3 per-resolution average cell area in
// square meters, frozen verbatim per spec.md §6 ("Design Notes"/frozen
// constants). Index is the resolution.
var avgCellAreaM2 = [MaxResolution + 1]float64{
	4250546848000.0,
	607220978200.0,
	86745854000.0,
	12392264000.0,
	1770324000.0,
	252903000.0,
	36129000.0,
	5161000.0,
	737000.0,
	105000.0,
	15000.0,
	2200.0,
	300.0,
	44.0,
	6.3,
	0.9,
}

// AverageCellAreaM2 returns the published average cell area in square
// meters for res, per the frozen table in spec.md §6.
func AverageCellAreaM2(res int) (float64, error) {
	if err := ValidateResolution(res); err != nil {
		return 0, err
	}
	return avgCellAreaM2[res], nil
}

// ValidateResolution reports an error unless res is in [0,15].
func ValidateResolution(res int) error {
	if res < MinResolution || res > MaxResolution {
		return fmt.Errorf("invalid h3 resolution %d (must be %d..%d)", res, MinResolution, MaxResolution)
	}
	return nil
}

func toH3Cell(c cellset.Cell) h3.Cell { return h3.Cell(c) }

// ParseCell is re-exported for callers that only have h3kernel imported.
func ParseCell(s string) (cellset.Cell, error) { return cellset.ParseCell(s) }

// LatLngToCell resolves the cell containing pt at res.
func LatLngToCell(pt model.LatLng, res int) (cellset.Cell, error) {
	if err := ValidateResolution(res); err != nil {
		return 0, err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: pt.Lat, Lng: pt.Lng}, res)
	if err != nil {
		return 0, fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return cellset.Cell(c), nil
}

// CellToLatLng returns the centroid of c.
func CellToLatLng(c cellset.Cell) (model.LatLng, error) {
	ll, err := toH3Cell(c).LatLng()
	if err != nil {
		return model.LatLng{}, fmt.Errorf("h3 cell to latlng: %w", err)
	}
	return model.LatLng{Lat: ll.Lat, Lng: ll.Lng}, nil
}

// CellToParent returns the ancestor of c at parentRes. parentRes must be
// <= c's own resolution; parentRes == c's resolution returns c unchanged.
func CellToParent(c cellset.Cell, parentRes int) (cellset.Cell, error) {
	if err := ValidateResolution(parentRes); err != nil {
		return 0, err
	}
	cur := toH3Cell(c)
	if !cur.IsValid() {
		return 0, fmt.Errorf("invalid h3 cell %q", c.String())
	}
	curRes := cur.Resolution()
	if parentRes > curRes {
		return 0, fmt.Errorf("parent resolution %d must be <= cell resolution %d", parentRes, curRes)
	}
	if parentRes == curRes {
		return c, nil
	}
	p, err := cur.Parent(parentRes)
	if err != nil {
		return 0, fmt.Errorf("h3 parent: %w", err)
	}
	return cellset.Cell(p), nil
}

// CellToChildren returns the sorted, de-duplicated descendants of c at
// childRes. childRes must be >= c's own resolution; childRes == c's
// resolution returns {c}.
func CellToChildren(c cellset.Cell, childRes int) (cellset.Set, error) {
	if err := ValidateResolution(childRes); err != nil {
		return cellset.Set{}, err
	}
	cur := toH3Cell(c)
	if !cur.IsValid() {
		return cellset.Set{}, fmt.Errorf("invalid h3 cell %q", c.String())
	}
	curRes := cur.Resolution()
	if childRes < curRes {
		return cellset.Set{}, fmt.Errorf("child resolution %d must be >= cell resolution %d", childRes, curRes)
	}
	if childRes == curRes {
		return cellset.NewSet(c), nil
	}
	kids, err := cur.Children(childRes)
	if err != nil {
		return cellset.Set{}, fmt.Errorf("h3 children: %w", err)
	}
	out := make([]cellset.Cell, len(kids))
	for i, k := range kids {
		out[i] = cellset.Cell(k)
	}
	return cellset.NewSet(out...), nil
}

// GridDisk returns all cells within grid distance k of origin, including
// origin itself.
func GridDisk(origin cellset.Cell, k int) (cellset.Set, error) {
	if k < 0 {
		return cellset.Set{}, fmt.Errorf("grid disk radius %d must be >= 0", k)
	}
	disk, err := toH3Cell(origin).GridDisk(k)
	if err != nil {
		return cellset.Set{}, fmt.Errorf("h3 grid disk: %w", err)
	}
	out := make([]cellset.Cell, len(disk))
	for i, c := range disk {
		out[i] = cellset.Cell(c)
	}
	return cellset.NewSet(out...), nil
}

// GridPathResult is the outcome of GridPath: either the exact shortest
// path between two same-resolution cells, or — when h3's own GridPathCells
// fails (pentagon distortion, cells too far apart) — the documented lossy
// fallback of just the two endpoints, with Lossy set.
type GridPathResult struct {
	Cells cellset.Set
	Lossy bool
}

// GridPath computes the shortest cell path from a to b (spec.md §4.3). On
// failure it falls back to {a, b} and reports Lossy, rather than
// propagating the underlying h3 error, since a line feature must still
// produce *some* cell coverage.
func GridPath(a, b cellset.Cell) (GridPathResult, error) {
	ca, cb := toH3Cell(a), toH3Cell(b)
	if ca.Resolution() != cb.Resolution() {
		return GridPathResult{}, fmt.Errorf("grid path endpoints at different resolutions: %d vs %d", ca.Resolution(), cb.Resolution())
	}
	path, err := ca.GridPathCells(cb)
	if err != nil {
		return GridPathResult{
			Cells: cellset.NewSet(a, b),
			Lossy: true,
		}, nil
	}
	out := make([]cellset.Cell, len(path))
	for i, c := range path {
		out[i] = cellset.Cell(c)
	}
	return GridPathResult{Cells: cellset.NewSet(out...)}, nil
}

// CellAreaM2 returns the exact area of c in square meters.
func CellAreaM2(c cellset.Cell) (float64, error) {
	a, err := h3.CellAreaM2(toH3Cell(c))
	if err != nil {
		return 0, fmt.Errorf("h3 cell area m2: %w", err)
	}
	return a, nil
}

// CellAreaKm2 returns the exact area of c in square kilometers.
func CellAreaKm2(c cellset.Cell) (float64, error) {
	a, err := h3.CellAreaKm2(toH3Cell(c))
	if err != nil {
		return 0, fmt.Errorf("h3 cell area km2: %w", err)
	}
	return a, nil
}

// CellBoundary returns the cell's boundary ring in lat/lng degrees.
func CellBoundary(c cellset.Cell) (model.Ring, error) {
	boundary, err := toH3Cell(c).Boundary()
	if err != nil {
		return nil, fmt.Errorf("h3 cell boundary: %w", err)
	}
	ring := make(model.Ring, len(boundary))
	for i, v := range boundary {
		ring[i] = model.LatLng{Lat: v.Lat, Lng: v.Lng}
	}
	return ring, nil
}

// ResolutionOf returns the resolution encoded in c.
func ResolutionOf(c cellset.Cell) int { return toH3Cell(c).Resolution() }

// IsValid reports whether c is structurally valid.
func IsValid(c cellset.Cell) bool { return toH3Cell(c).IsValid() }

// IsPentagon reports whether c is a pentagon or pentagon descendant.
func IsPentagon(c cellset.Cell) bool { return toH3Cell(c).IsPentagon() }

// toH3Loop converts a Ring (degrees) to an h3.GeoLoop, dropping an
// explicit closing duplicate vertex if present.
func toH3Loop(r model.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(r))
	for _, v := range r {
		loop = append(loop, h3.LatLng{Lat: v.Lat, Lng: v.Lng})
	}
	if len(loop) >= 2 && loop[0] == loop[len(loop)-1] {
		loop = loop[:len(loop)-1]
	}
	return loop
}

// Polyfill returns the cells at res covering the polygon described by
// exterior/holes under mode (spec.md §4.1).
func Polyfill(exterior model.Ring, holes []model.Ring, res int, mode ContainmentMode) (cellset.Set, error) {
	if err := ValidateResolution(res); err != nil {
		return cellset.Set{}, err
	}
	outer := toH3Loop(exterior)
	if len(outer) < 3 {
		return cellset.Set{}, fmt.Errorf("exterior ring has < 3 vertices")
	}
	hLoops := make([]h3.GeoLoop, 0, len(holes))
	for i, h := range holes {
		l := toH3Loop(h)
		if len(l) < 3 {
			return cellset.Set{}, fmt.Errorf("hole %d has < 3 vertices", i)
		}
		hLoops = append(hLoops, l)
	}
	poly := h3.GeoPolygon{GeoLoop: outer, Holes: hLoops}

	flag, err := h3ContainmentFlag(mode)
	if err != nil {
		return cellset.Set{}, err
	}
	cells, err := h3.PolygonToCellsExperimental(poly, res, flag)
	if err != nil {
		return cellset.Set{}, fmt.Errorf("h3 polyfill (%s): %w", mode, err)
	}
	return toSortedSet(cells), nil
}

func h3ContainmentFlag(mode ContainmentMode) (h3.ContainmentMode, error) {
	switch mode {
	case Center:
		return h3.ContainmentCenter, nil
	case Full:
		return h3.ContainmentFull, nil
	case Overlapping:
		return h3.ContainmentOverlapping, nil
	case OverlappingBBox:
		return h3.ContainmentOverlappingBbox, nil
	default:
		return 0, fmt.Errorf("unsupported containment mode %v", mode)
	}
}

func toSortedSet(cells []h3.Cell) cellset.Set {
	out := make([]cellset.Cell, len(cells))
	for i, c := range cells {
		out[i] = cellset.Cell(c)
	}
	return cellset.NewSet(out...)
}

