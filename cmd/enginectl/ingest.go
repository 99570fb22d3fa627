package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/config"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/model"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/observability"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/crs"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore/rebuildfeed"
)

func newIngestCmd() *cobra.Command {
	var ic config.IngestConfig
	var sourceCRS string
	var rebuildTopic string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index one or more GeoJSON files into the feature store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ic.Validate(); err != nil {
				return err
			}
			mode, err := ic.ParsedContainmentMode()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := featurestore.Open(ctx, ic.OutputPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			if err := store.CreateFeaturesTable(ctx); err != nil {
				return fmt.Errorf("create features table: %w", err)
			}

			registry := crs.NewRegistry()
			defer registry.Close()

			params := featurestore.IngestParams{
				TargetCells:     ic.TargetCells,
				MinResolution:   ic.MinResolution,
				MaxResolution:   ic.MaxResolution,
				ContainmentMode: mode,
			}

			inputCRS := model.UnknownCRS
			if sourceCRS != "" {
				inputCRS = model.NewCRS(sourceCRS)
			}

			start := time.Now()
			var total featurestore.IngestStats
			for _, path := range ic.InputFiles {
				features, err := featurestore.LoadGeoJSONFile(path, inputCRS)
				if err != nil {
					return fmt.Errorf("load %q: %w", path, err)
				}
				stats, err := store.Ingest(ctx, features, params, registry)
				if err != nil {
					return fmt.Errorf("ingest %q: %w", path, err)
				}
				total = mergeStats(total, stats)
			}
			observability.ObserveIngestDuration(time.Since(start).Seconds())
			recordIngestMetrics(total)

			cmd.Printf("ingested %d features (%d cells) across %d source files into %s\n",
				total.FeaturesInserted, total.CellsInserted, len(total.PerSourceFile), ic.OutputPath)
			if total.TooSmall > 0 {
				cmd.Printf("  %d feature(s) produced no cells at the planned resolution (too small for target cell count)\n", total.TooSmall)
			}
			if total.CorrectedUp > 0 {
				cmd.Printf("  %d feature(s) received a one-step planner correction\n", total.CorrectedUp)
			}

			if rebuildTopic != "" {
				brokers := config.FromEnv().KafkaBrokers
				producer, err := rebuildfeed.NewProducer(splitCSV(brokers), rebuildTopic)
				if err != nil {
					return fmt.Errorf("rebuild feed producer: %w", err)
				}
				defer producer.Close()
				gen, err := store.CountFeatures(ctx)
				if err != nil {
					return fmt.Errorf("generation count: %w", err)
				}
				if err := producer.Publish(rebuildfeed.RebuildEvent{
					TablePath:  ic.OutputPath,
					Generation: uint64(gen),
					TS:         time.Now(),
				}); err != nil {
					return fmt.Errorf("publish rebuild event: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ic.InputFiles, "input", nil, "GeoJSON input file(s) to ingest")
	cmd.Flags().StringVar(&ic.OutputPath, "output", "features.duckdb", "DuckDB database path")
	cmd.Flags().Uint32Var(&ic.TargetCells, "target-cells", 200, "target H3 cell count per feature")
	cmd.Flags().IntVar(&ic.MinResolution, "min-resolution", 0, "minimum H3 resolution")
	cmd.Flags().IntVar(&ic.MaxResolution, "max-resolution", 12, "maximum H3 resolution")
	cmd.Flags().StringVar(&ic.ContainmentMode, "containment-mode", "overlap", "polygon containment mode (center, full, overlap, overlap_bbox)")
	cmd.Flags().StringVar(&sourceCRS, "source-crs", "", "source CRS of the input files (default: treat as WGS84)")
	cmd.Flags().StringVar(&rebuildTopic, "rebuild-topic", "", "if set, publish a rebuild notification to this Kafka topic after ingest")

	return cmd
}

func mergeStats(a, b featurestore.IngestStats) featurestore.IngestStats {
	if a.PerSourceFile == nil {
		a.PerSourceFile = map[string]featurestore.SourceStats{}
	}
	a.FeaturesInserted += b.FeaturesInserted
	a.CellsInserted += b.CellsInserted
	a.TooSmall += b.TooSmall
	a.CorrectedUp += b.CorrectedUp
	for k, v := range b.PerSourceFile {
		a.PerSourceFile[k] = v
	}
	return a
}

func recordIngestMetrics(stats featurestore.IngestStats) {
	for file, src := range stats.PerSourceFile {
		observability.ObserveIngest(file, "ok", int(src.Cells))
	}
	for i := 0; i < stats.TooSmall; i++ {
		observability.ObserveIngest("", "too_small", 0)
	}
	for i := 0; i < stats.CorrectedUp; i++ {
		observability.IncPlannerCorrection("up")
	}
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
