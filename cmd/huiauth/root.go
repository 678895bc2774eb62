package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the huiauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "huiauth",
		Short: "huiauth - authentication service for the hụi platform",
		Long: `huiauth serves registration, login, sessions and platform settings
for the hụi backend. Configuration comes from built-in defaults, an optional
YAML file and HUI_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}
