package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/data-jobs-etl/internal/loader"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Build the star schema and load it into the database in one step",
	Long: `Runs build and load without the CSV round trip. With --out the tables are
also exported.`,
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
		if cmd.Flags().Changed("out") {
			if err := exportStar(cmd.Context(), cfg.OutDir, res, logger); err != nil {
				return err
			}
		}

		report, err := loadStar(cmd.Context(), cfg, logger, os.Stdout, func(ctx context.Context, w types.TableWriter, opts loader.Options) (*loader.Report, error) {
			return loader.Load(ctx, w, res.Tables(), opts)
		})
		if err != nil {
			return err
		}
		return report.Err()
	},
}

func init() {
	addBuildFlags(runCommand)
	addLoadFlags(runCommand)
	runCommand.Flags().StringP("out", "o", "", "Also export CSV tables to this directory")
	rootCmd.AddCommand(runCommand)
}
