package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/observability"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine"
)

func newQueryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a predicate, set-operation, or aggregate query against the feature store",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "features.duckdb", "DuckDB database path")

	withEngine := func(fn func(ctx context.Context, e *queryengine.Engine) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := featurestore.Open(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			return fn(ctx, queryengine.New(store.DB()))
		}
	}

	boolPredicate := func(name string, run func(*queryengine.Engine) func(context.Context, queryengine.Selection, queryengine.Selection) (bool, error)) *cobra.Command {
		var whereA, whereB string
		c := &cobra.Command{
			Use:   name,
			Short: fmt.Sprintf("Evaluate %s(A, B) over two feature filters", name),
			RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
				start := time.Now()
				ok, err := run(e)(ctx, queryengine.Filter{Where: whereA}, queryengine.Filter{Where: whereB})
				observability.ObserveQueryPredicate(name, time.Since(start).Seconds())
				if err != nil {
					return err
				}
				cmd.Println(ok)
				return nil
			}),
		}
		c.Flags().StringVar(&whereA, "a", "TRUE", "SQL filter for selection A")
		c.Flags().StringVar(&whereB, "b", "TRUE", "SQL filter for selection B")
		return c
	}

	cmd.AddCommand(boolPredicate("intersects", func(e *queryengine.Engine) func(context.Context, queryengine.Selection, queryengine.Selection) (bool, error) {
		return e.Intersects
	}))
	cmd.AddCommand(boolPredicate("within", func(e *queryengine.Engine) func(context.Context, queryengine.Selection, queryengine.Selection) (bool, error) {
		return e.Within
	}))
	cmd.AddCommand(boolPredicate("contains", func(e *queryengine.Engine) func(context.Context, queryengine.Selection, queryengine.Selection) (bool, error) {
		return e.Contains
	}))
	cmd.AddCommand(boolPredicate("touches", func(e *queryengine.Engine) func(context.Context, queryengine.Selection, queryengine.Selection) (bool, error) {
		return e.Touches
	}))

	cmd.AddCommand(newCountCellsCmd(withEngine))
	cmd.AddCommand(newCountFeaturesCmd(withEngine))
	cmd.AddCommand(newResolutionsCmd(withEngine))
	cmd.AddCommand(newAreaCmd(withEngine))
	cmd.AddCommand(newTotalAreaCmd(withEngine))

	return cmd
}

type engineRunner func(func(context.Context, *queryengine.Engine) error) func(*cobra.Command, []string) error

func newCountCellsCmd(withEngine engineRunner) *cobra.Command {
	var where string
	c := &cobra.Command{
		Use:   "count-cells",
		Short: "Count H3 cell entries across feature rows matching a filter (not de-duplicated across features)",
		RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
			start := time.Now()
			n, err := e.CountCells(ctx, where)
			observability.ObserveQueryPredicate("count_cells", time.Since(start).Seconds())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		}),
	}
	c.Flags().StringVar(&where, "where", "TRUE", "SQL filter")
	return c
}

func newCountFeaturesCmd(withEngine engineRunner) *cobra.Command {
	var where string
	c := &cobra.Command{
		Use:   "count-features",
		Short: "Count feature rows matching a filter",
		RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
			start := time.Now()
			n, err := e.CountFeatures(ctx, where)
			observability.ObserveQueryPredicate("count_features", time.Since(start).Seconds())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		}),
	}
	c.Flags().StringVar(&where, "where", "TRUE", "SQL filter")
	return c
}

func newResolutionsCmd(withEngine engineRunner) *cobra.Command {
	var where string
	c := &cobra.Command{
		Use:   "resolutions",
		Short: "List the distinct H3 resolutions present among matching feature rows",
		RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
			start := time.Now()
			res, err := e.Resolutions(ctx, where)
			observability.ObserveQueryPredicate("resolutions", time.Since(start).Seconds())
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		}),
	}
	c.Flags().StringVar(&where, "where", "TRUE", "SQL filter")
	return c
}

func newAreaCmd(withEngine engineRunner) *cobra.Command {
	var where, unitFlag string
	c := &cobra.Command{
		Use:   "area",
		Short: "Sum the geodesic area of a feature filter's cell footprint",
		Long: "Fails with ErrMixedResolution if the filter's rows span more than\n" +
			"one H3 resolution.",
		RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
			unit, err := queryengine.ParseAreaUnit(unitFlag)
			if err != nil {
				return err
			}
			start := time.Now()
			area, err := e.Area(ctx, queryengine.Filter{Where: where}, unit)
			observability.ObserveQueryPredicate("area", time.Since(start).Seconds())
			if err != nil {
				return err
			}
			fmt.Println(area)
			return nil
		}),
	}
	c.Flags().StringVar(&where, "where", "TRUE", "SQL filter")
	c.Flags().StringVar(&unitFlag, "unit", "m2", "area unit: m2 or km2")
	return c
}

func newTotalAreaCmd(withEngine engineRunner) *cobra.Command {
	var resolution int
	var unitFlag string
	c := &cobra.Command{
		Use:   "total-area",
		Short: "Sum the geodesic area of the whole table, normalized to one resolution",
		RunE: withEngine(func(ctx context.Context, e *queryengine.Engine) error {
			unit, err := queryengine.ParseAreaUnit(unitFlag)
			if err != nil {
				return err
			}
			start := time.Now()
			area, err := e.TotalArea(ctx, resolution, unit)
			observability.ObserveQueryPredicate("total_area", time.Since(start).Seconds())
			if err != nil {
				return err
			}
			fmt.Println(area)
			return nil
		}),
	}
	c.Flags().IntVar(&resolution, "resolution", 7, "target H3 resolution")
	c.Flags().StringVar(&unitFlag, "unit", "m2", "area unit: m2 or km2")
	return c
}
