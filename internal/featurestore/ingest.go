package featurestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/crs"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/encoder"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/planner"
	"github.com/mohammed-shakir/h3-spatial-cache/pkg/cellset"
)

// SourceFeature is one row read from an input file, before reprojection
// or H3 indexing.
type SourceFeature struct {
	SourceFile string
	Geometry   model.Geometry
	Attributes map[string]any
}

// IngestParams mirrors the convert_and_import.py config block: the
// adaptive planner's target, its resolution bounds, and the fixed
// containment mode used for every polygon in the batch. Point and line
// geometries are always indexed at MaxResolution.
type IngestParams struct {
	TargetCells     uint32
	MinResolution   int
	MaxResolution   int
	ContainmentMode h3kernel.ContainmentMode
}

func (p IngestParams) plannerParams() planner.Params {
	return planner.Params{
		TargetCells:     p.TargetCells,
		MinResolution:   p.MinResolution,
		MaxResolution:   p.MaxResolution,
		ContainmentMode: p.ContainmentMode,
	}
}

// IngestStats summarizes one Ingest call, the Go shape of
// print_statistics: totals plus a per-source-file breakdown.
type IngestStats struct {
	FeaturesInserted int
	CellsInserted    int64
	TooSmall         int
	CorrectedUp      int
	PerSourceFile    map[string]SourceStats
}

type SourceStats struct {
	Features int
	Cells    int64
	MinRes   int
	MaxRes   int
}

// indexedRow is a SourceFeature after reprojection and H3 indexing,
// ready for the bulk insert.
type indexedRow struct {
	sourceFile string
	wkb        []byte
	cells      cellset.Set
	resolution int
}

// Ingest reprojects every feature whose CRS is not already WGS84 (or
// unknown, treated as WGS84) to WGS84, indexes each to H3 per IngestParams, and
// bulk-inserts the batch with a single INSERT ... SELECT using DuckDB's
// own list_transform/h3_string_to_h3 conversion, exactly as
// import_to_duckdb does.
func (s *Store) Ingest(ctx context.Context, features []SourceFeature, params IngestParams, registry *crs.Registry) (IngestStats, error) {
	if len(features) == 0 {
		return IngestStats{}, nil
	}

	rows := make([]indexedRow, 0, len(features))
	stats := IngestStats{PerSourceFile: map[string]SourceStats{}}

	for i, f := range features {
		g, err := reproject(f.Geometry, registry)
		if err != nil {
			return IngestStats{}, fmt.Errorf("feature %d: reproject: %w", i, err)
		}

		cells, res, corrected, tooSmall, err := indexGeometry(g, params)
		if err != nil {
			return IngestStats{}, fmt.Errorf("feature %d: index: %w", i, err)
		}
		if tooSmall {
			stats.TooSmall++
		}
		if corrected {
			stats.CorrectedUp++
		}

		wkbBytes, err := encoder.ToWKB(g)
		if err != nil {
			return IngestStats{}, fmt.Errorf("feature %d: wkb: %w", i, err)
		}

		rows = append(rows, indexedRow{
			sourceFile: f.SourceFile,
			wkb:        wkbBytes,
			cells:      cells,
			resolution: res,
		})

		stats.FeaturesInserted++
		stats.CellsInserted += int64(cells.Len())

		src := stats.PerSourceFile[f.SourceFile]
		src.Features++
		src.Cells += int64(cells.Len())
		if src.MinRes == 0 || res < src.MinRes {
			src.MinRes = res
		}
		if res > src.MaxRes {
			src.MaxRes = res
		}
		stats.PerSourceFile[f.SourceFile] = src
	}

	if err := s.bulkInsert(ctx, rows); err != nil {
		return IngestStats{}, err
	}
	return stats, nil
}

// reproject transforms g into WGS84 unless its CRS is already WGS84 (or
// unknown), using the registry's cached per-source-CRS Transformer.
func reproject(g model.Geometry, registry *crs.Registry) (model.Geometry, error) {
	if g.CRS.IsWGS84NoOp() {
		return g, nil
	}
	t, err := registry.Transformer(g.CRS)
	if err != nil {
		return model.Geometry{}, err
	}
	return reprojectGeometry(g, t)
}

func reprojectGeometry(g model.Geometry, t *crs.Transformer) (model.Geometry, error) {
	out := g
	out.CRS = model.WGS84
	var err error
	switch g.Type {
	case model.Point:
		out.PointCoord, err = t.ToWGS84(g.PointCoord)
	case model.LineString:
		out.Line, err = t.ToWGS84Ring(g.Line)
	case model.Polygon:
		out.Exterior, err = t.ToWGS84Ring(g.Exterior)
		if err == nil {
			out.Holes, err = reprojectRings(g.Holes, t)
		}
	case model.MultiPoint:
		out.Points = make([]model.LatLng, len(g.Points))
		for i, p := range g.Points {
			out.Points[i], err = t.ToWGS84(p)
			if err != nil {
				break
			}
		}
	case model.MultiLineString:
		out.Lines, err = reprojectRings(g.Lines, t)
	case model.MultiPolygon:
		out.Polygons = make([]model.PolygonRings, len(g.Polygons))
		for i, part := range g.Polygons {
			out.Polygons[i].Exterior, err = t.ToWGS84Ring(part.Exterior)
			if err != nil {
				break
			}
			out.Polygons[i].Holes, err = reprojectRings(part.Holes, t)
			if err != nil {
				break
			}
		}
	default:
		return model.Geometry{}, model.ErrUnsupportedGeometry{Type: g.Type}
	}
	if err != nil {
		return model.Geometry{}, err
	}
	return out, nil
}

func reprojectRings(rings []model.Ring, t *crs.Transformer) ([]model.Ring, error) {
	out := make([]model.Ring, len(rings))
	for i, r := range rings {
		reprojected, err := t.ToWGS84Ring(r)
		if err != nil {
			return nil, err
		}
		out[i] = reprojected
	}
	return out, nil
}

// indexGeometry applies convert_to_h3's per-type rule: polygons and
// multipolygons go through the adaptive planner, everything else is
// encoded at a fixed MaxResolution.
func indexGeometry(g model.Geometry, params IngestParams) (cells cellset.Set, resolution int, corrected, tooSmall bool, err error) {
	switch g.Type {
	case model.Polygon:
		plan, err := planner.PlanPolygon(g.Exterior, g.Holes, params.plannerParams())
		if err != nil {
			return cellset.Set{}, 0, false, false, err
		}
		return plan.Cells.Cells, plan.Resolution, plan.Corrected, plan.TooSmall, nil

	case model.MultiPolygon:
		plan, err := planner.PlanMultiPolygon(g.Polygons, params.plannerParams())
		if err != nil {
			return cellset.Set{}, 0, false, false, err
		}
		return plan.Cells.Cells, plan.Resolution, plan.Corrected, plan.TooSmall, nil

	default:
		res, err := encoder.Encode(g, params.MaxResolution, params.ContainmentMode)
		if err != nil {
			return cellset.Set{}, 0, false, false, err
		}
		return res.Cells, params.MaxResolution, false, false, nil
	}
}

// bulkInsert mirrors prepare_dataframe_for_duckdb + import_to_duckdb: a
// staging table holds the raw values, then a single INSERT ... SELECT
// performs the WKB-to-GEOMETRY and string-to-cell-array conversions in
// DuckDB rather than row by row in Go.
func (s *Store) bulkInsert(ctx context.Context, rows []indexedRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback()

	const stagingDDL = `
		CREATE TEMP TABLE IF NOT EXISTS staging_features (
			source_file VARCHAR,
			geometry_wkb BLOB,
			h3_cells_raw VARCHAR,
			h3_resolution TINYINT
		)
	`
	if _, err := tx.ExecContext(ctx, stagingDDL); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM staging_features"); err != nil {
		return fmt.Errorf("clear staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO staging_features (source_file, geometry_wkb, h3_cells_raw, h3_resolution)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare staging insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		cellStrings := r.cells.Strings()
		sort.Strings(cellStrings)
		if _, err := stmt.ExecContext(ctx, r.sourceFile, r.wkb, strings.Join(cellStrings, ";"), r.resolution); err != nil {
			return fmt.Errorf("stage feature: %w", err)
		}
	}

	const insertSQL = `
		INSERT INTO features (feature_id, source_file, geometry, h3_cells, h3_resolution, h3_cell_count)
		SELECT
			(SELECT COALESCE(MAX(feature_id), -1) FROM features) + ROW_NUMBER() OVER () AS feature_id,
			source_file,
			ST_GeomFromWKB(geometry_wkb) AS geometry,
			CASE WHEN h3_cells_raw = '' THEN []::UBIGINT[]
				ELSE list_transform(
					list_filter(str_split(h3_cells_raw, ';'), x -> x != ''),
					x -> h3_string_to_h3(x)
				)
			END AS h3_cells,
			h3_resolution,
			CASE WHEN h3_cells_raw = '' THEN 0
				ELSE len(list_filter(str_split(h3_cells_raw, ';'), x -> x != ''))
			END AS h3_cell_count
		FROM staging_features
	`
	if _, err := tx.ExecContext(ctx, insertSQL); err != nil {
		return fmt.Errorf("bulk insert features: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE staging_features"); err != nil {
		return fmt.Errorf("drop staging table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}
