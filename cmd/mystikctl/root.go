package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "mystikctl",
	Short:        "Operator tools for the Mystik lead-capture backend",
	Long:         `Operator tools for the Mystik lead-capture backend: issue project keys, hash the admin password and repair the registration email index.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
