// Package config loads the engine's runtime configuration: ambient
// service settings from the environment (following FromEnv's
// getenv/getint/getduration convention), plus the ingest configuration
// surface, which is validated as a whole rather than clamped field by
// field.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/h3kernel"
)

// Config is the ambient service configuration: admin HTTP surface,
// logging, and the backing stores.
type Config struct {
	Addr            string
	LogLevel        string
	DuckDBPath      string
	RedisAddr       string
	KafkaBrokers    string
	CacheOpTimeout  time.Duration
	CacheTTLDefault time.Duration
	ResultCacheSize int
	Generation      string
}

func FromEnv() Config {
	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DuckDBPath:      getenv("DUCKDB_PATH", "features.duckdb"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    getenv("KAFKA_BROKERS", "localhost:9092"),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTLDefault: getduration("CACHE_TTL_DEFAULT", 60*time.Second),
		ResultCacheSize: getint("RESULT_CACHE_L1_SIZE", 4096),
		Generation:      getenv("GENERATION", "baseline"),
	}
}

// IngestConfig is the configuration surface for one ingest run: which
// files to index, where to write the columnar store, and the adaptive
// planner's parameters. Unlike Config, it is never partially defaulted
// or silently clamped — Validate reports every malformed field at once
// so a caller can fix a batch file in one pass instead of one error at a
// time.
type IngestConfig struct {
	InputFiles      []string
	OutputPath      string
	TargetCells     uint32
	MinResolution   int
	MaxResolution   int
	ContainmentMode string
}

// ParsedContainmentMode resolves ContainmentMode's string form to the
// h3kernel enum. Callers should only use this after Validate succeeds.
func (c IngestConfig) ParsedContainmentMode() (h3kernel.ContainmentMode, error) {
	return parseContainmentMode(c.ContainmentMode)
}

// Validate checks every field of c and returns a single error joining
// every violation found, or nil if c is well-formed.
func (c IngestConfig) Validate() error {
	var problems []string

	if len(c.InputFiles) == 0 {
		problems = append(problems, "input file list must not be empty")
	}
	for _, f := range c.InputFiles {
		if strings.TrimSpace(f) == "" {
			problems = append(problems, "input file list contains a blank entry")
			break
		}
	}

	if strings.TrimSpace(c.OutputPath) == "" {
		problems = append(problems, "output path must not be empty")
	}

	if c.TargetCells < 1 {
		problems = append(problems, fmt.Sprintf("target_cells must be >= 1, got %d", c.TargetCells))
	}

	if c.MinResolution < 0 || c.MinResolution > 15 {
		problems = append(problems, fmt.Sprintf("min_resolution must be in [0,15], got %d", c.MinResolution))
	}
	if c.MaxResolution < 0 || c.MaxResolution > 15 {
		problems = append(problems, fmt.Sprintf("max_resolution must be in [0,15], got %d", c.MaxResolution))
	}
	if c.MinResolution >= 0 && c.MinResolution <= 15 &&
		c.MaxResolution >= 0 && c.MaxResolution <= 15 &&
		c.MinResolution > c.MaxResolution {
		problems = append(problems, fmt.Sprintf("min_resolution (%d) must be <= max_resolution (%d)", c.MinResolution, c.MaxResolution))
	}

	if _, err := parseContainmentMode(c.ContainmentMode); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid ingest configuration:\n  - %s", strings.Join(problems, "\n  - "))
}

func parseContainmentMode(s string) (h3kernel.ContainmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center":
		return h3kernel.Center, nil
	case "full":
		return h3kernel.Full, nil
	case "overlap", "overlapping":
		return h3kernel.Overlapping, nil
	case "overlap_bbox", "overlapping_bbox":
		return h3kernel.OverlappingBBox, nil
	default:
		return 0, fmt.Errorf("unknown containment_mode %q (want one of center, full, overlap, overlap_bbox)", s)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
