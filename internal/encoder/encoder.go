package encoder

import (
	"fmt"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// Result is the outcome of encoding one geometry: the cell set at the
// requested resolution, whether any part of the encoding fell back to
// lossy behavior (grid_path endpoint fallback or centroid fallback), and
// the fallback reasons observed, for ingest statistics.
type Result struct {
	Cells         cellset.Set
	CentroidUsed  bool
	GridPathLossy bool
}

// Encode converts g into a cell set at res under mode (spec.md §4.1,
// §4.3, §4.4's centroid fallback). Point geometries ignore mode.
func Encode(g model.Geometry, res int, mode h3kernel.ContainmentMode) (Result, error) {
	switch g.Type {
	case model.Point:
		c, err := h3kernel.LatLngToCell(g.PointCoord, res)
		if err != nil {
			return Result{}, fmt.Errorf("encode point: %w", err)
		}
		return Result{Cells: cellset.NewSet(c)}, nil

	case model.LineString:
		return encodeLine(g.Line, res)

	case model.Polygon:
		return encodePolygon(g.Exterior, g.Holes, res, mode)

	case model.MultiPoint:
		cells := make([]cellset.Cell, 0, len(g.Points))
		for i, pt := range g.Points {
			c, err := h3kernel.LatLngToCell(pt, res)
			if err != nil {
				return Result{}, fmt.Errorf("encode multipoint part %d: %w", i, err)
			}
			cells = append(cells, c)
		}
		return Result{Cells: cellset.NewSet(cells...)}, nil

	case model.MultiLineString:
		acc := Result{Cells: cellset.NewSet()}
		for i, line := range g.Lines {
			r, err := encodeLine(line, res)
			if err != nil {
				return Result{}, fmt.Errorf("encode multilinestring part %d: %w", i, err)
			}
			acc.Cells = acc.Cells.Union(r.Cells)
			acc.GridPathLossy = acc.GridPathLossy || r.GridPathLossy
		}
		return acc, nil

	case model.MultiPolygon:
		acc := Result{Cells: cellset.NewSet()}
		for i, p := range g.Polygons {
			r, err := encodePolygon(p.Exterior, p.Holes, res, mode)
			if err != nil {
				return Result{}, fmt.Errorf("encode multipolygon part %d: %w", i, err)
			}
			acc.Cells = acc.Cells.Union(r.Cells)
			acc.CentroidUsed = acc.CentroidUsed || r.CentroidUsed
		}
		return acc, nil

	default:
		return Result{}, model.ErrUnsupportedGeometry{Type: g.Type}
	}
}

// encodeLine walks consecutive vertex pairs through h3kernel.GridPath and
// unions the per-segment cells, per spec.md §4.3.
func encodeLine(line model.Ring, res int) (Result, error) {
	if len(line) < 2 {
		return Result{}, fmt.Errorf("linestring needs >= 2 vertices, got %d", len(line))
	}
	cells := make([]cellset.Cell, 0, len(line))
	firstCell, err := h3kernel.LatLngToCell(line[0], res)
	if err != nil {
		return Result{}, fmt.Errorf("encode line vertex 0: %w", err)
	}
	cells = append(cells, firstCell)
	prev := firstCell
	lossy := false

	for i := 1; i < len(line); i++ {
		cur, err := h3kernel.LatLngToCell(line[i], res)
		if err != nil {
			return Result{}, fmt.Errorf("encode line vertex %d: %w", i, err)
		}
		path, err := h3kernel.GridPath(prev, cur)
		if err != nil {
			return Result{}, fmt.Errorf("grid path segment %d: %w", i-1, err)
		}
		cells = append(cells, path.Cells.Cells()...)
		lossy = lossy || path.Lossy
		prev = cur
	}
	return Result{Cells: cellset.NewSet(cells...), GridPathLossy: lossy}, nil
}

// encodePolygon polyfills the ring set at res/mode, falling back to the
// single cell containing the (vertex-average) centroid when the polyfill
// yields no cells at all — a small polygon entirely within one coarser
// cell under a strict containment mode (spec.md §4.4).
func encodePolygon(exterior model.Ring, holes []model.Ring, res int, mode h3kernel.ContainmentMode) (Result, error) {
	cells, err := h3kernel.Polyfill(exterior, holes, res, mode)
	if err != nil {
		return Result{}, fmt.Errorf("encode polygon: %w", err)
	}
	if cells.Len() > 0 {
		return Result{Cells: cells}, nil
	}

	centroid := vertexAverageCentroid(exterior)
	c, err := h3kernel.LatLngToCell(centroid, res)
	if err != nil {
		return Result{}, fmt.Errorf("encode polygon centroid fallback: %w", err)
	}
	return Result{Cells: cellset.NewSet(c), CentroidUsed: true}, nil
}

// vertexAverageCentroid is a vertex-average approximation of a polygon's
// centroid, sufficient for choosing a single fallback cell; it is not a
// true area-weighted centroid.
func vertexAverageCentroid(ring model.Ring) model.LatLng {
	var sumLat, sumLng float64
	n := len(ring)
	for _, v := range ring {
		sumLat += v.Lat
		sumLng += v.Lng
	}
	return model.LatLng{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}
}
