package featurestore

import (
	"context"
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/crs"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
)

func squareRing(minLat, minLng, maxLat, maxLng float64) model.Ring {
	return model.Ring{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: maxLng},
		{Lat: maxLat, Lng: maxLng},
		{Lat: maxLat, Lng: minLng},
		{Lat: minLat, Lng: minLng},
	}
}

func defaultIngestParams() IngestParams {
	return IngestParams{
		TargetCells:     50,
		MinResolution:   2,
		MaxResolution:   9,
		ContainmentMode: h3kernel.Overlapping,
	}
}

func TestIngest_PolygonAndPoint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateFeaturesTable(ctx); err != nil {
		t.Fatalf("CreateFeaturesTable: %v", err)
	}

	registry := crs.NewRegistry()
	defer registry.Close()

	features := []SourceFeature{
		{
			SourceFile: "a.gpkg",
			Geometry: model.Geometry{
				Type:     model.Polygon,
				CRS:      model.WGS84,
				Exterior: squareRing(10, 10, 12, 12),
			},
		},
		{
			SourceFile: "a.gpkg",
			Geometry: model.Geometry{
				Type:       model.Point,
				CRS:        model.WGS84,
				PointCoord: model.LatLng{Lat: 37.775, Lng: -122.418},
			},
		},
	}

	stats, err := s.Ingest(ctx, features, defaultIngestParams(), registry)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.FeaturesInserted != 2 {
		t.Fatalf("expected 2 features inserted, got %d", stats.FeaturesInserted)
	}
	if stats.CellsInserted == 0 {
		t.Fatalf("expected at least one H3 cell to be inserted")
	}

	n, err := s.CountFeatures(ctx)
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows in features table, got %d", n)
	}

	counts, err := s.ResolutionCounts(ctx)
	if err != nil {
		t.Fatalf("ResolutionCounts: %v", err)
	}
	if len(counts) == 0 {
		t.Fatalf("expected at least one resolution bucket")
	}
}

func TestIngest_EmptyBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CreateFeaturesTable(ctx); err != nil {
		t.Fatalf("CreateFeaturesTable: %v", err)
	}

	registry := crs.NewRegistry()
	defer registry.Close()

	stats, err := s.Ingest(ctx, nil, defaultIngestParams(), registry)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.FeaturesInserted != 0 {
		t.Fatalf("expected no features inserted for an empty batch")
	}
}
