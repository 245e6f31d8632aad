// Command ingest is the Hoopstats command-line tool: it loads box-score CSV
// files into the configured store and runs the same queries the API serves.
//
// Usage:
//
//	hoopstats csv games/*.csv --workers 4
//	hoopstats seed --file public/sample_data/demo.csv
//	hoopstats players --team Duke --sort assists --page-size 20
//	hoopstats series <player-id> --metric rebounds --window 5
//	hoopstats teams
//	hoopstats migrate up
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/hoopstats/internal/config"
	"github.com/albapepper/hoopstats/internal/store"
)

var logger = newLogger(slog.LevelInfo)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// globalFlags override the environment for a single invocation.
type globalFlags struct {
	driver     string
	sqlitePath string
	verbose    bool
}

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "hoopstats",
		Short:         "Hoopstats ingestion and query CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.verbose {
				logger = newLogger(slog.LevelDebug)
			}
			slog.SetDefault(logger)
		},
	}
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "Store driver: postgres, sqlite or memory (default from STORE_DRIVER)")
	root.PersistentFlags().StringVar(&g.sqlitePath, "sqlite", "", "SQLite database file (default from SQLITE_PATH)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(csvCmd(&g))
	root.AddCommand(seedCmd(&g))
	root.AddCommand(playersCmd(&g))
	root.AddCommand(seriesCmd(&g))
	root.AddCommand(teamsCmd(&g))
	root.AddCommand(orphansCmd(&g))
	root.AddCommand(migrateCmd(&g))
	return root
}

// runWithStore loads config, applies flag overrides, opens the store and runs
// fn with a signal-aware context.
func runWithStore(g *globalFlags, fn func(ctx context.Context, cfg *config.Config, st *store.Handle) error) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(ctx, cfg, st)
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	if g.driver != "" {
		os.Setenv("STORE_DRIVER", g.driver)
	}
	if g.sqlitePath != "" {
		os.Setenv("SQLITE_PATH", g.sqlitePath)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// LOG_LEVEL applies unless --verbose asked for debug output.
	level := cfg.LogLevel
	if g.verbose {
		level = slog.LevelDebug
	}
	logger = newLogger(level)
	slog.SetDefault(logger)
	return cfg, nil
}
