package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/linkharvest/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")

			if output == "" {
				output = filepath.Join(config.ConfigDir(), "config.yaml")
			}
			if err := config.WriteFile(output, config.Default(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Destination path (default $XDG_CONFIG_HOME/linkharvest/config.yaml)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")

	return cmd
}
