package crs

import (
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
)

func TestParseEPSG(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"EPSG:4326", 4326, false},
		{"epsg:3857", 3857, false},
		{"3857", 3857, false},
		{"  EPSG:25832  ", 25832, false},
		{"not-a-code", 0, true},
		{"EPSG:-1", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseEPSG(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseEPSG(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEPSG(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseEPSG(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNoopTransformerForWGS84(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	tr, err := reg.Transformer(model.WGS84)
	if err != nil {
		t.Fatalf("Transformer(WGS84): %v", err)
	}
	pt := model.LatLng{Lat: 12.3, Lng: 45.6}
	out, err := tr.ToWGS84(pt)
	if err != nil {
		t.Fatalf("ToWGS84: %v", err)
	}
	if out != pt {
		t.Fatalf("expected no-op transform to return the point unchanged, got %v", out)
	}
}

func TestNoopTransformerForUnknownCRS(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	tr, err := reg.Transformer(model.UnknownCRS)
	if err != nil {
		t.Fatalf("Transformer(UnknownCRS): %v", err)
	}
	ring := model.Ring{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	out, err := tr.ToWGS84Ring(ring)
	if err != nil {
		t.Fatalf("ToWGS84Ring: %v", err)
	}
	for i := range ring {
		if out[i] != ring[i] {
			t.Fatalf("expected no-op ring transform, got %v", out)
		}
	}
}

func TestRegistryCachesTransformerPerSourceCRS(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	a, err := reg.Transformer(model.UnknownCRS)
	if err != nil {
		t.Fatalf("Transformer: %v", err)
	}
	b, err := reg.Transformer(model.UnknownCRS)
	if err != nil {
		t.Fatalf("Transformer: %v", err)
	}
	if a != b {
		t.Fatalf("expected cached transformer to be reused for the same source CRS")
	}
}
