package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestQueryPredicateCounter_LabelsAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	SetGeneration("g1")

	ObserveQueryPredicate("intersects", 0.001)
	ObserveQueryPredicate("within", 0.002)
	ObserveQueryPredicate("within", 0.003)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("metrics scrape: %v", err)
	}
	t.Cleanup(func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.Fatalf("close body: %v", cerr)
		}
	})
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	out := string(b)

	exp1 := `query_predicate_total{op="intersects"} 1`
	exp2 := `query_predicate_total{op="within"} 2`
	if !strings.Contains(out, exp1) {
		t.Fatalf("expected %q in metrics; got:\n%s", exp1, out)
	}
	if !strings.Contains(out, exp2) {
		t.Fatalf("expected %q in metrics; got:\n%s", exp2, out)
	}
}

func TestResultCacheCounters_GenerationLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	SetGeneration("g7")

	AddCacheHits(3)
	AddCacheMisses(1)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("metrics scrape: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	out := string(b)

	if !strings.Contains(out, `result_cache_hits_total{generation="g7"} 3`) {
		t.Fatalf("expected result_cache_hits_total sample; got:\n%s", out)
	}
	if !strings.Contains(out, `result_cache_misses_total{generation="g7"} 1`) {
		t.Fatalf("expected result_cache_misses_total sample; got:\n%s", out)
	}
}
