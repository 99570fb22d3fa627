// Command enginectl is the operator CLI for the DGGS feature store and
// query engine: it ingests vector files into the columnar store, runs
// ad-hoc queries against it, and serves the read-only admin HTTP
// surface (health, metrics, stats) for a long-running instance.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/h3-spatial-cache/internal/core/config"
	"github.com/mohammed-shakir/h3-spatial-cache/internal/logger"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "enginectl",
		Short:         "Operate the DGGS feature store and query engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIngestCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newServeCmd())

	return root
}

// newLoggers builds the zerolog base logger plus its slog bridge and
// returns the slog logger with a cleanup func (currently a no-op).
func newLoggers(cfg config.Config, component string) (*slog.Logger, func()) {
	zl := logger.Build(logger.Config{
		Level:      cfg.LogLevel,
		Console:    true,
		Generation: cfg.Generation,
		Component:  component,
	}, os.Stdout)
	sl := logger.NewSlog(&zl)
	return sl, func() {}
}
