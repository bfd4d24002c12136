package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/data-jobs-etl/internal/rules"
)

var rulesCommand = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate normalization rules",
}

var rulesDumpFormat string

var rulesDumpCommand = &cobra.Command{
	Use:   "dump",
	Short: "Print the embedded default rules",
	Long:  "Prints the embedded default rules, a starting point for a dataset-specific rules file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data := rules.DefaultJSON()
		if rules.Format(rulesDumpFormat) == rules.FormatYAML {
			var err error
			if data, err = rules.Default().Marshal(rules.FormatYAML); err != nil {
				return err
			}
		}
		_, err := cmd.OutOrStdout().Write(data)
		return err
	},
}

var rulesValidateCommand = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a rules file against the rules schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rules.LoadFile(args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (version %q, %d aliases)\n", args[0], rs.Version, len(rs.Company.Aliases))
		return nil
	},
}

var rulesSchemaCommand = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for rules files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(rules.Schema())
		return err
	},
}

func init() {
	rulesDumpCommand.Flags().StringVar(&rulesDumpFormat, "format", string(rules.FormatJSON), "Output format: json or yaml")
	rulesCommand.AddCommand(rulesDumpCommand, rulesValidateCommand, rulesSchemaCommand)
	rootCmd.AddCommand(rulesCommand)
}
