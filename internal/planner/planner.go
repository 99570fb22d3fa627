// Package planner implements the adaptive resolution planner: given a
// polygon (or multipolygon), a target cell count, and resolution bounds,
// pick a single resolution via an area→resolution lookup plus a one-step
// validate/correct pass (spec.md §4.4).
package planner

import (
	"fmt"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/encoder"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
)

// Plan is the planner's decision for one geometry: the chosen resolution,
// the cell set produced at that resolution, and whether a correction step
// was taken.
type Plan struct {
	Resolution int
	Cells      encoder.Result
	Corrected  bool
	TooSmall   bool
}

// Params bounds and targets a planning call.
type Params struct {
	TargetCells     uint32
	MinResolution   int
	MaxResolution   int
	ContainmentMode h3kernel.ContainmentMode
}

func (p Params) validate() error {
	if p.TargetCells == 0 {
		return fmt.Errorf("target cell count must be >= 1")
	}
	if err := h3kernel.ValidateResolution(p.MinResolution); err != nil {
		return fmt.Errorf("min resolution: %w", err)
	}
	if err := h3kernel.ValidateResolution(p.MaxResolution); err != nil {
		return fmt.Errorf("max resolution: %w", err)
	}
	if p.MinResolution > p.MaxResolution {
		return fmt.Errorf("min resolution %d must be <= max resolution %d", p.MinResolution, p.MaxResolution)
	}
	return nil
}

// PlanPolygon runs the adaptive planner for a single polygon.
func PlanPolygon(exterior model.Ring, holes []model.Ring, p Params) (Plan, error) {
	area := GeodesicAreaM2(exterior, holes)
	return plan(area, func(res int) (encoder.Result, error) {
		return encoder.Encode(model.Geometry{Type: model.Polygon, Exterior: exterior, Holes: holes}, res, p.ContainmentMode)
	}, p)
}

// PlanMultiPolygon runs the adaptive planner for a multipolygon, summing
// component areas per spec.md §4.4 step 1.
func PlanMultiPolygon(parts []model.PolygonRings, p Params) (Plan, error) {
	area := MultiPolygonAreaM2(parts)
	return plan(area, func(res int) (encoder.Result, error) {
		return encoder.Encode(model.Geometry{Type: model.MultiPolygon, Polygons: parts}, res, p.ContainmentMode)
	}, p)
}

// plan is the resolution-independent core of the algorithm: choose the
// smallest r in [r_min, r_max] whose average cell area is <= the target
// per-cell area, validate by encoding, and take exactly one correction
// step toward finer resolution if the result under-produced.
func plan(areaM2 float64, encodeAt func(res int) (encoder.Result, error), p Params) (Plan, error) {
	if err := p.validate(); err != nil {
		return Plan{}, err
	}

	targetPerCellArea := areaM2 / float64(p.TargetCells)

	res := p.MaxResolution
	for r := p.MinResolution; r <= p.MaxResolution; r++ {
		avg, err := h3kernel.AverageCellAreaM2(r)
		if err != nil {
			return Plan{}, err
		}
		if avg <= targetPerCellArea {
			res = r
			break
		}
	}

	result, err := encodeAt(res)
	if err != nil {
		return Plan{}, fmt.Errorf("planner validate at resolution %d: %w", res, err)
	}
	if result.Cells.Len() == 0 {
		return Plan{Resolution: res, Cells: result, TooSmall: true}, nil
	}

	if uint32(result.Cells.Len()) < p.TargetCells && res < p.MaxResolution {
		corrected, err := encodeAt(res + 1)
		if err != nil {
			return Plan{}, fmt.Errorf("planner correction at resolution %d: %w", res+1, err)
		}
		return Plan{Resolution: res + 1, Cells: corrected, Corrected: true}, nil
	}

	return Plan{Resolution: res, Cells: result}, nil
}
