package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)
	observability.SetGeneration("baseline")

	observability.ObserveQueryPredicate("intersects", 0.005)
	observability.ObserveQueryPredicate("union", 0.010)

	observability.AddCacheHits(3)
	observability.AddCacheMisses(1)
	observability.ObserveCacheOp("mget", nil, 0.002)

	observability.ObserveIngest("parcels.gpkg", "ok", 12)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`query_predicate_duration_seconds_bucket`,
		`redis_operation_duration_seconds_count`,
		`result_cache_hits_total{generation="baseline"} 3`,
		`result_cache_misses_total{generation="baseline"} 1`,
		`ingest_features_total{outcome="ok",source_file="parcels.gpkg"} 1`,
		`ingest_cells_total{source_file="parcels.gpkg"} 12`,
		`app_build_info`,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}

	assertHasMetricLine(t, body, "query_predicate_total", `op="intersects"`)
	assertHasMetricLine(t, body, "query_predicate_total", `op="union"`)
	assertHasMetricLine(t, body, "app_build_info", `version="test"`)
}
