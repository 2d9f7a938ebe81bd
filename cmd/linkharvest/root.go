package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkharvest",
		Short: "linkharvest - paginated link scraper",
		Long: `linkharvest walks a paginated listing (?page=1, ?page=2, ...), collects
every hyperlink that passes an optional regular-expression filter, stores
them and exports them as CSV, JSON, plain text or Markdown.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
