package featurestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/encoder"
)

// LoadGeoJSONFile reads a GeoJSON FeatureCollection and converts every
// feature's geometry into model.Geometry, tagged with the given source
// CRS (GeoJSON features carry no CRS of their own; RFC 7946 mandates
// WGS84, but batches reprojected upstream may still be tagged sourceCRS).
func LoadGeoJSONFile(path string, sourceCRS model.CRS) ([]SourceFeature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("decode geojson %q: %w", path, err)
	}

	name := filepath.Base(path)
	out := make([]SourceFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		g, err := encoder.FromGoGeom(f.Geometry, sourceCRS)
		if err != nil {
			return nil, fmt.Errorf("%s: feature %d: %w", name, i, err)
		}
		out = append(out, SourceFeature{
			SourceFile: name,
			Geometry:   g,
			Attributes: f.Properties,
		})
	}
	return out, nil
}
