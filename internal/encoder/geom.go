// Package encoder converts vector geometries into H3 cell sets at a
// fixed resolution (spec.md §4.1), and bridges arbitrary go-geom input
// (as produced by file-format decoders during ingest) into the engine's
// own model.Geometry representation.
package encoder

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
)

// FromGoGeom converts a decoded go-geom geometry (GeoJSON/WKT/WKB, via
// the corresponding go-geom/encoding/* package) into model.Geometry. Only
// XY layouts are supported; Z/M coordinates are dropped.
func FromGoGeom(t geom.T, crs model.CRS) (model.Geometry, error) {
	switch g := t.(type) {
	case *geom.Point:
		coords := g.FlatCoords()
		if len(coords) < 2 {
			return model.Geometry{}, fmt.Errorf("point has no coordinates")
		}
		return model.Geometry{
			Type:       model.Point,
			CRS:        crs,
			PointCoord: model.LatLng{Lng: coords[0], Lat: coords[1]},
		}, nil

	case *geom.LineString:
		return model.Geometry{
			Type: model.LineString,
			CRS:  crs,
			Line: ringFromFlat(g.FlatCoords(), g.Stride()),
		}, nil

	case *geom.Polygon:
		rings := unflattenRings(g.FlatCoords(), g.Ends(), g.Stride())
		if len(rings) == 0 {
			return model.Geometry{}, fmt.Errorf("polygon has no rings")
		}
		return model.Geometry{
			Type:     model.Polygon,
			CRS:      crs,
			Exterior: rings[0],
			Holes:    rings[1:],
		}, nil

	case *geom.MultiPoint:
		pts := make([]model.LatLng, g.NumPoints())
		for i := 0; i < g.NumPoints(); i++ {
			c := g.Point(i).FlatCoords()
			pts[i] = model.LatLng{Lng: c[0], Lat: c[1]}
		}
		return model.Geometry{Type: model.MultiPoint, CRS: crs, Points: pts}, nil

	case *geom.MultiLineString:
		lines := make([]model.Ring, g.NumLineStrings())
		for i := 0; i < g.NumLineStrings(); i++ {
			ls := g.LineString(i)
			lines[i] = ringFromFlat(ls.FlatCoords(), ls.Stride())
		}
		return model.Geometry{Type: model.MultiLineString, CRS: crs, Lines: lines}, nil

	case *geom.MultiPolygon:
		polys := make([]model.PolygonRings, g.NumPolygons())
		for i := 0; i < g.NumPolygons(); i++ {
			p := g.Polygon(i)
			rings := unflattenRings(p.FlatCoords(), p.Ends(), p.Stride())
			if len(rings) == 0 {
				return model.Geometry{}, fmt.Errorf("multipolygon part %d has no rings", i)
			}
			polys[i] = model.PolygonRings{Exterior: rings[0], Holes: rings[1:]}
		}
		return model.Geometry{Type: model.MultiPolygon, CRS: crs, Polygons: polys}, nil

	default:
		return model.Geometry{}, fmt.Errorf("unsupported go-geom type %T", t)
	}
}

// ToGoGeom converts model.Geometry back into a go-geom value, the
// inverse of FromGoGeom, for ingest paths that need to hand the
// geometry to a WKB/WKT encoder.
func ToGoGeom(g model.Geometry) (geom.T, error) {
	switch g.Type {
	case model.Point:
		return geom.NewPointFlat(geom.XY, []float64{g.PointCoord.Lng, g.PointCoord.Lat}), nil

	case model.LineString:
		return geom.NewLineStringFlat(geom.XY, flattenRing(g.Line)), nil

	case model.Polygon:
		flat, ends := flattenRings(append([]model.Ring{g.Exterior}, g.Holes...))
		return geom.NewPolygonFlat(geom.XY, flat, ends), nil

	case model.MultiPoint:
		flat := make([]float64, 0, len(g.Points)*2)
		for _, p := range g.Points {
			flat = append(flat, p.Lng, p.Lat)
		}
		return geom.NewMultiPointFlat(geom.XY, flat), nil

	case model.MultiLineString:
		flat, ends := flattenRings(g.Lines)
		return geom.NewMultiLineStringFlat(geom.XY, flat, ends), nil

	case model.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY)
		for i, part := range g.Polygons {
			flat, ends := flattenRings(append([]model.Ring{part.Exterior}, part.Holes...))
			p := geom.NewPolygonFlat(geom.XY, flat, ends)
			if err := mp.Push(p); err != nil {
				return nil, fmt.Errorf("multipolygon part %d: %w", i, err)
			}
		}
		return mp, nil

	default:
		return nil, model.ErrUnsupportedGeometry{Type: g.Type}
	}
}

// ToWKB serializes g as well-known binary, for handing to DuckDB's
// ST_GeomFromWKB on ingest.
func ToWKB(g model.Geometry) ([]byte, error) {
	t, err := ToGoGeom(g)
	if err != nil {
		return nil, err
	}
	b, err := wkb.Marshal(t, nil)
	if err != nil {
		return nil, fmt.Errorf("wkb marshal: %w", err)
	}
	return b, nil
}

func flattenRing(ring model.Ring) []float64 {
	flat := make([]float64, 0, len(ring)*2)
	for _, p := range ring {
		flat = append(flat, p.Lng, p.Lat)
	}
	return flat
}

func flattenRings(rings []model.Ring) ([]float64, []int) {
	var flat []float64
	ends := make([]int, len(rings))
	for i, r := range rings {
		flat = append(flat, flattenRing(r)...)
		ends[i] = len(flat)
	}
	return flat, ends
}

func ringFromFlat(flat []float64, stride int) model.Ring {
	ring := make(model.Ring, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		ring = append(ring, model.LatLng{Lng: flat[i], Lat: flat[i+1]})
	}
	return ring
}

func unflattenRings(flat []float64, ends []int, stride int) []model.Ring {
	rings := make([]model.Ring, 0, len(ends))
	start := 0
	for _, end := range ends {
		rings = append(rings, ringFromFlat(flat[start:end], stride))
		start = end
	}
	return rings
}
