package spatialengine

import (
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
)

// TestDGGSAgreesWithGeometric_Containment polyfills an outer square at a
// resolution coarse enough to keep it comfortably away from cell-boundary
// ambiguity, and checks that the DGGS cell-based Within/Contains verdict
// for a concentric inner square agrees with the geometric oracle.
func TestDGGSAgreesWithGeometric_Containment(t *testing.T) {
	const res = 4

	outerRing := square(10, 10, 20, 20)
	innerRing := square(13, 13, 17, 17)

	outerCells, err := h3kernel.Polyfill(outerRing, nil, res, h3kernel.Overlapping)
	if err != nil {
		t.Fatalf("Polyfill outer: %v", err)
	}
	innerCells, err := h3kernel.Polyfill(innerRing, nil, res, h3kernel.Center)
	if err != nil {
		t.Fatalf("Polyfill inner: %v", err)
	}

	dggs := NewDGGS()
	dggsContains, err := dggs.Contains(outerCells, innerCells)
	if err != nil {
		t.Fatalf("DGGS.Contains: %v", err)
	}

	geo := NewGeometric()
	geoContains, err := geo.Contains(polygonGeometry(outerRing), polygonGeometry(innerRing))
	if err != nil {
		t.Fatalf("Geometric.Contains: %v", err)
	}

	if !geoContains {
		t.Fatalf("fixture invariant violated: outer square should geometrically contain inner square")
	}
	if dggsContains != geoContains {
		t.Fatalf("DGGS.Contains=%v disagrees with Geometric.Contains=%v for a well-separated containment case", dggsContains, geoContains)
	}
}

// TestDGGSAgreesWithGeometric_Disjoint checks that two far-apart squares
// are reported as non-intersecting by both engines.
func TestDGGSAgreesWithGeometric_Disjoint(t *testing.T) {
	const res = 4

	a := square(0, 0, 1, 1)
	b := square(40, 40, 41, 41)

	aCells, err := h3kernel.Polyfill(a, nil, res, h3kernel.Overlapping)
	if err != nil {
		t.Fatalf("Polyfill a: %v", err)
	}
	bCells, err := h3kernel.Polyfill(b, nil, res, h3kernel.Overlapping)
	if err != nil {
		t.Fatalf("Polyfill b: %v", err)
	}

	dggs := NewDGGS()
	dggsIntersects, err := dggs.Intersects(aCells, bCells)
	if err != nil {
		t.Fatalf("DGGS.Intersects: %v", err)
	}

	geo := NewGeometric()
	geoIntersects, err := geo.Intersects(polygonGeometry(a), polygonGeometry(b))
	if err != nil {
		t.Fatalf("Geometric.Intersects: %v", err)
	}

	if geoIntersects {
		t.Fatalf("fixture invariant violated: squares 40 degrees apart should not geometrically intersect")
	}
	if dggsIntersects != geoIntersects {
		t.Fatalf("DGGS.Intersects=%v disagrees with Geometric.Intersects=%v for a well-separated disjoint case", dggsIntersects, geoIntersects)
	}
}
