package planner

import (
	"math"
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
)

// roughly a 1 degree x 1 degree box near the equator, ~111km x 111km.
func squareDegree(minLat, minLng, size float64) model.Ring {
	return model.Ring{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng},
	}
}

func TestGeodesicAreaM2_Positive(t *testing.T) {
	ring := squareDegree(0, 0, 1)
	area := GeodesicAreaM2(ring, nil)
	if area <= 0 {
		t.Fatalf("expected positive area, got %f", area)
	}
	// ~111km x 111km ~= 1.23e10 m2; allow a generous band for the
	// spherical approximation.
	if area < 1e9 || area > 2e10 {
		t.Fatalf("area out of expected order of magnitude: %f", area)
	}
}

func TestGeodesicAreaM2_HoleReducesArea(t *testing.T) {
	exterior := squareDegree(0, 0, 1)
	hole := squareDegree(0.25, 0.25, 0.5)
	withHole := GeodesicAreaM2(exterior, []model.Ring{hole})
	without := GeodesicAreaM2(exterior, nil)
	if withHole >= without {
		t.Fatalf("expected hole to reduce area: with=%f without=%f", withHole, without)
	}
}

func TestPlanPolygon_RespectsResolutionBounds(t *testing.T) {
	ring := squareDegree(0, 0, 1)
	plan, err := PlanPolygon(ring, nil, Params{
		TargetCells:     1000,
		MinResolution:   5,
		MaxResolution:   9,
		ContainmentMode: h3kernel.Overlapping,
	})
	if err != nil {
		t.Fatalf("PlanPolygon: %v", err)
	}
	if plan.Resolution < 5 || plan.Resolution > 9 {
		t.Fatalf("resolution %d out of requested bounds [5,9]", plan.Resolution)
	}
	if plan.Cells.Cells.Len() == 0 {
		t.Fatalf("expected non-empty cell set")
	}
}

func TestPlanPolygon_CorrectionBiasesTowardTarget(t *testing.T) {
	ring := squareDegree(0, 0, 1)
	target := uint32(500)
	plan, err := PlanPolygon(ring, nil, Params{
		TargetCells:     target,
		MinResolution:   0,
		MaxResolution:   9,
		ContainmentMode: h3kernel.Overlapping,
	})
	if err != nil {
		t.Fatalf("PlanPolygon: %v", err)
	}
	if plan.TooSmall {
		t.Fatalf("did not expect too-small sentinel for a 1-degree square")
	}
	if uint32(plan.Cells.Cells.Len()) < target && plan.Resolution < 9 {
		t.Fatalf("expected correction step to have run: cells=%d resolution=%d", plan.Cells.Cells.Len(), plan.Resolution)
	}
}

func TestPlanPolygon_MonotoneInTarget(t *testing.T) {
	ring := squareDegree(0, 0, 2)
	low, err := PlanPolygon(ring, nil, Params{TargetCells: 10, MinResolution: 0, MaxResolution: 10, ContainmentMode: h3kernel.Overlapping})
	if err != nil {
		t.Fatalf("PlanPolygon low: %v", err)
	}
	high, err := PlanPolygon(ring, nil, Params{TargetCells: 100000, MinResolution: 0, MaxResolution: 10, ContainmentMode: h3kernel.Overlapping})
	if err != nil {
		t.Fatalf("PlanPolygon high: %v", err)
	}
	if high.Resolution < low.Resolution {
		t.Fatalf("expected a larger target to choose an equal or finer resolution: low=%d high=%d", low.Resolution, high.Resolution)
	}
}

func TestPlanPolygon_RejectsZeroTarget(t *testing.T) {
	ring := squareDegree(0, 0, 1)
	if _, err := PlanPolygon(ring, nil, Params{TargetCells: 0, MinResolution: 0, MaxResolution: 5}); err == nil {
		t.Fatalf("expected error for zero target cell count")
	}
}

func TestPlanPolygon_RejectsInvertedBounds(t *testing.T) {
	ring := squareDegree(0, 0, 1)
	if _, err := PlanPolygon(ring, nil, Params{TargetCells: 10, MinResolution: 8, MaxResolution: 5}); err == nil {
		t.Fatalf("expected error for min resolution > max resolution")
	}
}

func TestPlanMultiPolygon_SumsComponentAreas(t *testing.T) {
	parts := []model.PolygonRings{
		{Exterior: squareDegree(0, 0, 1)},
		{Exterior: squareDegree(10, 10, 1)},
	}
	combined := MultiPolygonAreaM2(parts)
	single := GeodesicAreaM2(parts[0].Exterior, nil)
	if math.Abs(combined-2*single) > single*0.05 {
		t.Fatalf("expected combined area to be ~2x single part area: combined=%f single=%f", combined, single)
	}
}
