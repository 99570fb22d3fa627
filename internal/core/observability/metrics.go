// Package observability exposes Prometheus metrics for the ingest
// pipeline, the DGGS query engine, and the result cache.
package observability

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	enabled      atomic.Bool
	generationV  atomic.Value
)

func Init(r prometheus.Registerer, isEnabled bool) {
	enabled.Store(isEnabled)
	if generationV.Load() == nil {
		generationV.Store("baseline")
	}
	if !isEnabled || r == nil {
		return
	}
	initCollectors(r)
}

func Enabled() bool { return enabled.Load() }

// SetGeneration labels subsequent metric observations with the current
// rebuild generation, the replacement for the teacher's per-scenario
// label.
func SetGeneration(g string) {
	if g == "" {
		g = "baseline"
	}
	generationV.Store(g)
}

func getGeneration() string {
	v := generationV.Load()
	if v == nil {
		return "baseline"
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "baseline"
}

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	ingestFeaturesTotal       *prometheus.CounterVec
	ingestCellsTotal          *prometheus.CounterVec
	ingestDurationSeconds     *prometheus.HistogramVec
	encoderFallbackTotal      *prometheus.CounterVec
	plannerCorrectionsTotal   *prometheus.CounterVec
	plannerChosenResolution   *prometheus.HistogramVec

	queryPredicateTotal           *prometheus.CounterVec
	queryPredicateDurationSeconds *prometheus.HistogramVec
	queryResolutionNormalizations *prometheus.CounterVec

	cacheOpTotal                  *prometheus.CounterVec
	redisOperationDurationSeconds *prometheus.HistogramVec
	resultCacheHitsTotal          *prometheus.CounterVec
	resultCacheMissesTotal        *prometheus.CounterVec
)

func initCollectors(r prometheus.Registerer) {
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of admin HTTP requests."},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "Duration of admin HTTP requests in seconds.", Buckets: prometheus.ExponentialBuckets(0.005, 2, 12)},
		[]string{"method", "route", "status"},
	)

	ingestFeaturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ingest_features_total", Help: "Features written to the feature store, by source file and outcome."},
		[]string{"source_file", "outcome"},
	)
	ingestCellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ingest_cells_total", Help: "H3 cells written to the feature store, by source file."},
		[]string{"source_file"},
	)
	ingestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "ingest_duration_seconds", Help: "Duration of one Ingest call in seconds.", Buckets: prometheus.ExponentialBuckets(0.01, 2, 16)},
		[]string{"generation"},
	)
	encoderFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "encoder_fallback_total", Help: "Times the encoder fell back to a centroid cell for an unindexable geometry, by geometry type."},
		[]string{"geometry_type"},
	)
	plannerCorrectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_corrections_total", Help: "Times the adaptive planner corrected its initial resolution estimate, by direction."},
		[]string{"direction"},
	)
	plannerChosenResolution = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "planner_chosen_resolution", Help: "Distribution of resolutions chosen by the adaptive planner.", Buckets: prometheus.LinearBuckets(0, 1, 16)},
		[]string{},
	)

	queryPredicateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "query_predicate_total", Help: "Boolean predicate and set-operation queries, by operation."},
		[]string{"op"},
	)
	queryPredicateDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "query_predicate_duration_seconds", Help: "Duration of a predicate/set-operation query in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 2, 15)},
		[]string{"op"},
	)
	queryResolutionNormalizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "query_resolution_normalizations_total", Help: "Times a query coarsened or refined cells to a join resolution, by direction."},
		[]string{"direction"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_op_total", Help: "Count of cache operations by op and outcome."},
		[]string{"op", "outcome"},
	)
	redisOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "redis_operation_duration_seconds", Help: "Latency of Redis operations in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 2, 15)},
		[]string{"op"},
	)
	resultCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "result_cache_hits_total", Help: "Count of result-cache hits."},
		[]string{"generation"},
	)
	resultCacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "result_cache_misses_total", Help: "Count of result-cache misses."},
		[]string{"generation"},
	)

	r.MustRegister(
		httpRequestsTotal, httpRequestDurationSeconds,
		ingestFeaturesTotal, ingestCellsTotal, ingestDurationSeconds,
		encoderFallbackTotal, plannerCorrectionsTotal, plannerChosenResolution,
		queryPredicateTotal, queryPredicateDurationSeconds, queryResolutionNormalizations,
		cacheOpTotal, redisOperationDurationSeconds, resultCacheHitsTotal, resultCacheMissesTotal,
	)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() || httpRequestsTotal == nil {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveIngest records one feature's ingest outcome ("ok", "too_small",
// "corrected_up") for sourceFile, and its cell count when ok.
func ObserveIngest(sourceFile, outcome string, cells int) {
	if !enabled.Load() || ingestFeaturesTotal == nil {
		return
	}
	if outcome == "" {
		outcome = "ok"
	}
	ingestFeaturesTotal.WithLabelValues(sourceFile, outcome).Inc()
	if cells > 0 {
		ingestCellsTotal.WithLabelValues(sourceFile).Add(float64(cells))
	}
}

func ObserveIngestDuration(durationSeconds float64) {
	if !enabled.Load() || ingestDurationSeconds == nil {
		return
	}
	ingestDurationSeconds.WithLabelValues(getGeneration()).Observe(durationSeconds)
}

func IncEncoderFallback(geometryType string) {
	if !enabled.Load() || encoderFallbackTotal == nil {
		return
	}
	if geometryType == "" {
		geometryType = "unknown"
	}
	encoderFallbackTotal.WithLabelValues(geometryType).Inc()
}

// IncPlannerCorrection records a one-step planner correction;
// direction is "up" (resolution raised) or "down" (resolution lowered).
func IncPlannerCorrection(direction string) {
	if !enabled.Load() || plannerCorrectionsTotal == nil {
		return
	}
	if direction != "up" && direction != "down" {
		direction = "unknown"
	}
	plannerCorrectionsTotal.WithLabelValues(direction).Inc()
}

func ObservePlannerResolution(res int) {
	if !enabled.Load() || plannerChosenResolution == nil {
		return
	}
	plannerChosenResolution.WithLabelValues().Observe(float64(res))
}

func ObserveQueryPredicate(op string, durationSeconds float64) {
	if !enabled.Load() || queryPredicateTotal == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	queryPredicateTotal.WithLabelValues(op).Inc()
	queryPredicateDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

// IncResolutionNormalization records a coarsen ("down") or refine ("up")
// step performed while joining two selections at a common resolution.
func IncResolutionNormalization(direction string) {
	if !enabled.Load() || queryResolutionNormalizations == nil {
		return
	}
	if direction != "up" && direction != "down" {
		direction = "unknown"
	}
	queryResolutionNormalizations.WithLabelValues(direction).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	if op == "" {
		op = "unknown"
	}
	outcome := "ok"
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		default:
			outcome = "error"
		}
	}
	if cacheOpTotal != nil {
		cacheOpTotal.WithLabelValues(op, outcome).Inc()
	}
	if redisOperationDurationSeconds != nil {
		redisOperationDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
	}
}

func AddCacheHits(n int) {
	if !enabled.Load() || resultCacheHitsTotal == nil || n <= 0 {
		return
	}
	resultCacheHitsTotal.WithLabelValues(getGeneration()).Add(float64(n))
}

func AddCacheMisses(n int) {
	if !enabled.Load() || resultCacheMissesTotal == nil || n <= 0 {
		return
	}
	resultCacheMissesTotal.WithLabelValues(getGeneration()).Add(float64(n))
}
