// Package commands implements the tradescribe CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradescribe",
		Short: "tradescribe - Discord trade-journal chatbot",
		Long: `tradescribe relays Discord direct messages to a Flowise AI flow,
journals every conversation, and serves trade-journal summaries on demand.

Examples:
  tradescribe serve
  tradescribe serve --config ./config.yaml`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
