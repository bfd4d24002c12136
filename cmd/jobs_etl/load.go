package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/data-jobs-etl/internal/config"
	"github.com/jonathan/data-jobs-etl/internal/db"
	"github.com/jonathan/data-jobs-etl/internal/loader"
	"github.com/jonathan/data-jobs-etl/internal/observability"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

var loadCommand = &cobra.Command{
	Use:   "load",
	Short: "Load exported CSV tables into the database",
	Long: `Reads the CSV tables written by build from --in and loads them, dimensions
first, into PostgreSQL or SQLite. A missing or rejected table is reported and
the remaining tables are still loaded unless --transactional is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd, configPath)
		if err != nil {
			return err
		}

		logger, _, err := newRunLogger(cfg.Verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		report, err := loadStar(cmd.Context(), cfg, logger, os.Stdout, func(ctx context.Context, w types.TableWriter, opts loader.Options) (*loader.Report, error) {
			return loader.LoadDir(ctx, w, cfg.OutDir, opts)
		})
		if err != nil {
			return err
		}
		return report.Err()
	},
}

func init() {
	addLoadFlags(loadCommand)
	loadCommand.Flags().StringP("in", "i", "", "Directory of CSV tables written by build (default: csv)")
	rootCmd.AddCommand(loadCommand)
}

type loadFunc func(ctx context.Context, w types.TableWriter, opts loader.Options) (*loader.Report, error)

// loadStar opens the store, prepares the schema and runs load.
func loadStar(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer, load loadFunc) (*loader.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db-url or %s must be provided", config.EnvDatabaseURL)
	}

	store, err := db.Open(ctx, cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if cfg.Reset {
		if err := store.DropSchema(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Reset || cfg.InitSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("schema ready", zap.String("driver", cfg.Driver), zap.Bool("reset", cfg.Reset))
	}

	report, err := load(ctx, store, loader.Options{Transactional: cfg.Transactional, Logger: logger})
	if err != nil {
		return nil, err
	}
	observability.NewPrinter(out).PrintLoadReport(report)
	return report, nil
}
