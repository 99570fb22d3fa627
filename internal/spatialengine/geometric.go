package spatialengine

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
)

// Geometric is the slow, exact oracle: it tests predicates against the
// original polygon geometry (via s2.Polygon) rather than an H3
// approximation, used in tests to check that the DGGS engine's
// cell-based answers agree with ground truth away from cell boundaries.
type Geometric struct{}

// NewGeometric constructs the geometric oracle.
func NewGeometric() Geometric { return Geometric{} }

func (Geometric) Name() string { return "Geometric s2 Engine" }

func (Geometric) Intersects(a, b model.Geometry) (bool, error) {
	pa, pb, err := toS2Polygons(a, b)
	if err != nil {
		return false, err
	}
	return pa.Intersects(pb), nil
}

func (Geometric) Within(a, b model.Geometry) (bool, error) {
	pa, pb, err := toS2Polygons(a, b)
	if err != nil {
		return false, err
	}
	return pb.Contains(pa), nil
}

func (Geometric) Contains(a, b model.Geometry) (bool, error) {
	pa, pb, err := toS2Polygons(a, b)
	if err != nil {
		return false, err
	}
	return pa.Contains(pb), nil
}

// Touches approximates the exterior-boundary-contact definition as
// "intersects but neither contains the other" — sufficient for
// cross-validating the DGGS engine's coarser cell-based Touches, though
// not a strict interiors-disjoint geometric touches test.
func (Geometric) Touches(a, b model.Geometry) (bool, error) {
	pa, pb, err := toS2Polygons(a, b)
	if err != nil {
		return false, err
	}
	if !pa.Intersects(pb) {
		return false, nil
	}
	return !pa.Contains(pb) && !pb.Contains(pa), nil
}

func toS2Polygons(a, b model.Geometry) (*s2.Polygon, *s2.Polygon, error) {
	pa, err := geometryToPolygon(a)
	if err != nil {
		return nil, nil, fmt.Errorf("geometry a: %w", err)
	}
	pb, err := geometryToPolygon(b)
	if err != nil {
		return nil, nil, fmt.Errorf("geometry b: %w", err)
	}
	return pa, pb, nil
}

func geometryToPolygon(g model.Geometry) (*s2.Polygon, error) {
	switch g.Type {
	case model.Polygon:
		return polygonFromRings(g.Exterior, g.Holes)
	case model.MultiPolygon:
		var loops []*s2.Loop
		for i, part := range g.Polygons {
			loop, err := loopFromRing(part.Exterior)
			if err != nil {
				return nil, fmt.Errorf("multipolygon part %d exterior: %w", i, err)
			}
			loops = append(loops, loop)
			for j, hole := range part.Holes {
				hl, err := loopFromRing(hole)
				if err != nil {
					return nil, fmt.Errorf("multipolygon part %d hole %d: %w", i, j, err)
				}
				loops = append(loops, hl)
			}
		}
		return s2.PolygonFromLoops(loops), nil
	default:
		return nil, model.ErrUnsupportedGeometry{Type: g.Type}
	}
}

func polygonFromRings(exterior model.Ring, holes []model.Ring) (*s2.Polygon, error) {
	loops := make([]*s2.Loop, 0, 1+len(holes))
	ext, err := loopFromRing(exterior)
	if err != nil {
		return nil, fmt.Errorf("exterior: %w", err)
	}
	loops = append(loops, ext)
	for i, h := range holes {
		hl, err := loopFromRing(h)
		if err != nil {
			return nil, fmt.Errorf("hole %d: %w", i, err)
		}
		loops = append(loops, hl)
	}
	return s2.PolygonFromLoops(loops), nil
}

func loopFromRing(ring model.Ring) (*s2.Loop, error) {
	n := len(ring)
	if n >= 2 && ring[0] == ring[n-1] {
		n--
	}
	if n < 3 {
		return nil, fmt.Errorf("ring has < 3 distinct vertices")
	}
	pts := make([]s2.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(ring[i].Lat, ring[i].Lng))
	}
	return s2.LoopFromPoints(pts), nil
}

var _ Named = Geometric{}
