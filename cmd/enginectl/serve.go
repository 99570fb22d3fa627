package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/cache/redisstore"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/config"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/health"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/middleware"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/observability"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/featurestore/rebuildfeed"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/metrics"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/queryengine/resultcache"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP surface and rebuild-feed consumer for a live engine instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			return runServe(cmd.Context(), cfg)
		},
	}
	return cmd
}

// engineState holds the open Store and the cached query engine. The
// rebuild feed does not replace either: its callback only bumps the
// generation the cached engine keys on and purges the L1 result cache.
type engineState struct {
	store  *featurestore.Store
	cached *resultcache.CachedEngine
}

func runServe(ctx context.Context, cfg config.Config) error {
	sl, cleanup := newLoggers(cfg, "enginectl")
	defer cleanup()

	metricsProvider := metrics.Init(metrics.Config{Build: metrics.BuildInfo{Version: Version}})
	observability.Init(metricsProvider.Registerer(), true)
	observability.SetGeneration(cfg.Generation)

	store, err := featurestore.Open(ctx, cfg.DuckDBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := store.CreateFeaturesTable(ctx); err != nil {
		return fmt.Errorf("create features table: %w", err)
	}

	var l2 *redisstore.Client
	if cfg.RedisAddr != "" {
		l2, err = redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			sl.Warn("redis unavailable, running with L1-only result cache", "err", err)
			l2 = nil
		} else {
			defer l2.Close()
		}
	}
	rc, err := resultcache.New(cfg.ResultCacheSize, l2, cfg.CacheTTLDefault)
	if err != nil {
		return fmt.Errorf("result cache: %w", err)
	}

	state := &engineState{store: store}
	generation := uint64(1)
	state.cached = resultcache.NewCachedEngine(queryengine.New(store.DB()), rc, func() uint64 { return generation })

	feedCfg := rebuildfeed.FromEnv()
	runner := rebuildfeed.New(feedCfg, func(ev rebuildfeed.RebuildEvent) {
		generation = ev.Generation
		rc.Purge()
		sl.Info("applied rebuild event", "table_path", ev.TablePath, "generation", ev.Generation)
	}, rebuildfeed.Options{Logger: sl, Register: metricsProvider.Registerer()})
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start rebuild feed: %w", err)
	}
	defer runner.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newAdminRouter(sl, metricsProvider, runner, state),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		sl.Info("http listen", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	shutdownSignalCh := make(chan os.Signal, 1)
	signal.Notify(shutdownSignalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-shutdownSignalCh:
		sl.Info("signal received, shutting down", "signal", sig.String())
	case err := <-serverErrCh:
		sl.Error("server error", "err", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	sl.Info("server stopped")
	return nil
}

func newAdminRouter(sl *slog.Logger, mp *metrics.Provider, runner *rebuildfeed.Runner, state *engineState) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(sl))
	r.Use(middleware.CORS())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		health.Liveness().ServeHTTP(w, req)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		health.Readiness(runner).ServeHTTP(w, req)
	})
	r.Handle("/metrics", mp.Handler())
	r.Get("/stats", statsHandler(state))

	return r
}

func statsHandler(state *engineState) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		count, err := state.store.CountFeatures(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resCounts, err := state.store.ResolutionCounts(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Features         int64                          `json:"features"`
			ResolutionCounts []featurestore.ResolutionCount `json:"resolution_counts"`
		}{Features: count, ResolutionCounts: resCounts})
	}
}
