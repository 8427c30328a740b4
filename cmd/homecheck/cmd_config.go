package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irtazafoods/homecheck/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the homecheck config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			config.Show(cmd.OutOrStdout(), config.Load())
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Load().ConfigPath
			if err := config.InitFile(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
