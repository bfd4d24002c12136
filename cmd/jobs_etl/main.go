// Package main provides the entry point for the data-jobs ETL command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobs_etl",
	Short: "Data jobs star-schema ETL",
	Long: `jobs_etl reads a spreadsheet of data-job postings, normalizes company, portal,
location and country names, derives dimension tables with dense surrogate ids and
a fact table with one row per (posting, schedule, skill), and loads the result
into PostgreSQL or SQLite.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs and error stack traces")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err, verbose)
		os.Exit(1)
	}
}

// printError reports a command failure, with the stack trace of fatal
// pipeline errors when withStack is set.
func printError(w io.Writer, err error, withStack bool) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	var stack *goerrors.Error
	if withStack && errors.As(err, &stack) {
		_, _ = fmt.Fprintln(w, stack.ErrorStack())
	}
}
