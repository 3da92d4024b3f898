// Package cmd implements the CLI commands for collectord.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "collectord",
	Short: "Collect market price history from the Steam Community Market",
	Long: "An API-first daemon that walks marketplace catalogs, fetches per-item " +
		"price history under a strict shared request budget, and stores " +
		"deduplicated observations in PostgreSQL.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
