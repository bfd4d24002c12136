package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/data-jobs-etl/internal/config"
	"github.com/jonathan/data-jobs-etl/internal/export"
	"github.com/jonathan/data-jobs-etl/internal/observability"
	"github.com/jonathan/data-jobs-etl/internal/pipeline"
	"github.com/jonathan/data-jobs-etl/internal/source"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Build the star schema and export it as CSV files",
	Long: `Reads the raw postings, normalizes them, extracts the dimension tables, expands
schedules and skills, resolves foreign keys and writes one CSV file per table
to --out. Existing files are replaced.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd, configPath)
		if err != nil {
			return err
		}
		if cfg.Source == "" {
			return fmt.Errorf("--source must be provided (via flag or config)")
		}

		logger, runID, err := newRunLogger(cfg.Verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		res, err := buildStar(cmd.Context(), cfg, runID, logger, os.Stdout)
		if err != nil {
			return err
		}
		return exportStar(cmd.Context(), cfg.OutDir, res, logger)
	},
}

func init() {
	addBuildFlags(buildCommand)
	buildCommand.Flags().StringP("out", "o", "", "Output directory for CSV tables (default: csv)")
	rootCmd.AddCommand(buildCommand)
}

// buildStar reads the source and runs the pipeline.
func buildStar(ctx context.Context, cfg config.Config, runID string, logger *zap.Logger, out io.Writer) (*pipeline.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	rs, err := loadRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	postings, err := source.ReadFile(cfg.Source, source.Options{Sheet: cfg.Sheet})
	if err != nil {
		return nil, err
	}
	logger.Info("source read", zap.String("path", cfg.Source), zap.Int("rows", len(postings)))

	step := 0
	res, err := pipeline.Build(ctx, postings, rs, pipeline.Options{
		RunID:  runID,
		Logger: logger,
		OnProgress: func(e pipeline.ProgressEvent) {
			step++
			printStep(step, 5, e.Message, e.Count)
		},
	})
	if err != nil {
		return nil, err
	}

	observability.NewPrinter(out).PrintBuildSummary(res, time.Since(start))
	return res, nil
}

func exportStar(ctx context.Context, dir string, res *pipeline.Result, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := export.NewDir(dir)
	if err != nil {
		return err
	}
	if err := out.WriteAll(ctx, res.Tables()); err != nil {
		return fmt.Errorf("failed to export tables: %w", err)
	}
	logger.Info("tables exported", zap.String("dir", out.Path()))
	return nil
}
