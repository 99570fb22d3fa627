// Package model defines the core domain value types shared across the
// indexer and query engine: the geometry value type, the CRS identifier,
// and the feature-table row shape.
package model

import "fmt"

// GeometryType enumerates the geometry variants spec.md §3 names.
type GeometryType int

const (
	Point GeometryType = iota
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
)

func (t GeometryType) String() string {
	switch t {
	case Point:
		return "Point"
	case LineString:
		return "LineString"
	case Polygon:
		return "Polygon"
	case MultiPoint:
		return "MultiPoint"
	case MultiLineString:
		return "MultiLineString"
	case MultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat, Lng float64
}

// Ring is a closed sequence of vertices; the first/last vertex need not
// be repeated (encoders normalize that internally).
type Ring []LatLng

// PolygonRings is one polygon of a MultiPolygon: an exterior ring plus
// zero or more holes.
type PolygonRings struct {
	Exterior Ring
	Holes    []Ring
}

// Geometry is a CRS-tagged vector geometry value. Exactly one of the
// variant-specific fields is populated, selected by Type. Coordinates
// are stored in the CRS named by CRS until a transformer has produced a
// WGS84 copy (see internal/crs).
type Geometry struct {
	Type GeometryType
	CRS  CRS

	PointCoord LatLng         // Type == Point
	Line       Ring           // Type == LineString
	Exterior   Ring           // Type == Polygon
	Holes      []Ring         // Type == Polygon
	Points     []LatLng       // Type == MultiPoint
	Lines      []Ring         // Type == MultiLineString
	Polygons   []PolygonRings // Type == MultiPolygon
}

// ErrUnsupportedGeometry is the typed error for an unrecognized or
// zero-value geometry variant reaching the encoder.
type ErrUnsupportedGeometry struct {
	Type GeometryType
}

func (e ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("unsupported geometry variant: %s", e.Type)
}

// CRS is a coordinate reference system identifier as accepted at the
// ingest boundary: an EPSG code, the "EPSG:<n>" string form, or a
// sentinel meaning "already WGS84"/"unknown" (both are no-op transforms).
type CRS struct {
	raw string
}

const (
	wgs84Sentinel   = "already WGS84"
	unknownSentinel = "unknown"
)

// WGS84 is the canonical CRS.
var WGS84 = CRS{raw: wgs84Sentinel}

// UnknownCRS is the sentinel meaning "treat as already WGS84".
var UnknownCRS = CRS{raw: unknownSentinel}

// NewCRS wraps a raw EPSG identifier (e.g. "EPSG:3857" or "3857").
func NewCRS(raw string) CRS { return CRS{raw: raw} }

// IsWGS84NoOp reports whether transforming this CRS to WGS84 is a no-op.
func (c CRS) IsWGS84NoOp() bool {
	return c.raw == wgs84Sentinel || c.raw == unknownSentinel || c.raw == ""
}

func (c CRS) String() string {
	if c.raw == "" {
		return unknownSentinel
	}
	return c.raw
}

// BBox is an axis-aligned bounding box in a named CRS, kept alongside
// arbitrary Geometry for callers that encode a rectangle directly rather
// than a polygon.
type BBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
	CRS        CRS
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.MinX, b.MinY, b.MaxX, b.MaxY, b.CRS.String())
}

// FeatureID identifies a row in the feature table.
type FeatureID uint32

// Feature is one row of the feature table (spec.md §3). Invariants,
// enforced by internal/featurestore at ingest time and never assumed by
// callers reading the table back:
//
//   - H3CellCount == len(H3Cells)
//   - every cell in H3Cells has resolution H3Resolution
//   - if len(H3Cells) == 1 and Geometry is polygonal, the cell contains
//     the geometry's centroid (centroid fallback, spec.md §4.4)
type Feature struct {
	ID           FeatureID
	SourceFile   string
	Geometry     Geometry
	H3Cells      []uint64
	H3Resolution uint8
	H3CellCount  uint32
	Attributes   map[string]any
}
