package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/data-jobs-etl/internal/config"
	"github.com/jonathan/data-jobs-etl/internal/db"
	"github.com/jonathan/data-jobs-etl/internal/observability"
	"github.com/jonathan/data-jobs-etl/internal/rules"
)

// defaults fill whatever neither the config file nor a flag set.
var defaults = config.Config{
	OutDir: "csv",
	Driver: db.DriverPostgres,
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("source", "s", "", "Raw postings file (.xlsx or .csv)")
	cmd.Flags().String("sheet", "", "Workbook sheet (default: first sheet)")
	cmd.Flags().String("rules", "", "Normalization rules file (default: embedded rules)")
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-url", "", "Database URL, or SQLite file path (defaults to DATABASE_URL env var)")
	cmd.Flags().String("driver", "", "Database driver: postgres or sqlite (default: postgres)")
	cmd.Flags().Bool("init-schema", false, "Create missing tables before loading")
	cmd.Flags().Bool("reset", false, "Drop and recreate every table before loading")
	cmd.Flags().Bool("transactional", false, "Load every table in one transaction and roll back on the first failure")
}

// resolveConfig loads the config file, applies explicitly set flags on top,
// then fills the remaining gaps from defaults and DATABASE_URL.
func resolveConfig(cmd *cobra.Command, path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	stringFlag(cmd, "source", &cfg.Source)
	stringFlag(cmd, "sheet", &cfg.Sheet)
	stringFlag(cmd, "out", &cfg.OutDir)
	stringFlag(cmd, "in", &cfg.OutDir)
	stringFlag(cmd, "rules", &cfg.Rules)
	stringFlag(cmd, "db-url", &cfg.DatabaseURL)
	stringFlag(cmd, "driver", &cfg.Driver)
	boolFlag(cmd, "init-schema", &cfg.InitSchema)
	boolFlag(cmd, "reset", &cfg.Reset)
	boolFlag(cmd, "transactional", &cfg.Transactional)
	boolFlag(cmd, "verbose", &cfg.Verbose)

	cfg = cfg.MergeWithDefaults(defaults).WithEnv()
	// A config file can turn on verbose output too; stack traces follow it.
	verbose = cfg.Verbose
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		v, err := cmd.Flags().GetBool(name)
		if err == nil {
			*dst = v
		}
	}
}

// loadRules returns the embedded default rules when path is empty.
func loadRules(path string) (rules.Rules, error) {
	if path == "" {
		return rules.Default(), nil
	}
	rs, err := rules.LoadFile(path)
	if err != nil {
		return rules.Rules{}, fmt.Errorf("failed to load rules: %w", err)
	}
	return rs, nil
}

// newRunLogger creates the process logger tagged with a fresh run id.
func newRunLogger(verbose bool) (*zap.Logger, string, error) {
	logger, err := observability.NewLogger(verbose)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	runID := uuid.New().String()
	return logger.With(zap.String("run_id", runID)), runID, nil
}

func printStep(step, total int, message string, rows int) {
	_, _ = fmt.Fprintf(os.Stdout, "Step %d/%d: %s (%d)\n", step, total, message, rows)
}
