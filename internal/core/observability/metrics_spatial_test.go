package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestIngestMetrics_RegistrationAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)

	ObserveIngest("parcels.gpkg", "ok", 4)
	ObserveIngest("parcels.gpkg", "too_small", 0)
	IncEncoderFallback("MultiPolygon")
	IncPlannerCorrection("up")

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("metrics scrape: %v", err)
	}
	defer resp.Body.Close()

	body := new(strings.Builder)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := body.String()

	if !strings.Contains(out, `ingest_features_total{outcome="ok",source_file="parcels.gpkg"} 1`) {
		t.Fatalf("missing ingest_features_total ok sample:\n%s", out)
	}
	if !strings.Contains(out, `ingest_features_total{outcome="too_small",source_file="parcels.gpkg"} 1`) {
		t.Fatalf("missing ingest_features_total too_small sample:\n%s", out)
	}
	if !strings.Contains(out, `ingest_cells_total{source_file="parcels.gpkg"} 4`) {
		t.Fatalf("missing ingest_cells_total sample:\n%s", out)
	}
	if !strings.Contains(out, `encoder_fallback_total{geometry_type="MultiPolygon"} 1`) {
		t.Fatalf("missing encoder_fallback_total sample:\n%s", out)
	}
	if !strings.Contains(out, `planner_corrections_total{direction="up"} 1`) {
		t.Fatalf("missing planner_corrections_total sample:\n%s", out)
	}
}
