package main

import (
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/linkharvest/pkg/exporter"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [RUN_ID]",
		Short: "Export the links of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			format, err := exporter.ParseFormat(formatName)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			links, err := a.store.Links(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			body, err := exporter.New("Run " + args[0]).Render(links, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, body)
		},
	}

	cmd.Flags().String("format", "csv", "Output format (csv, json, txt, md)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}
