// Package cli wires the shieldrev commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shieldrev",
	Short: "Review extraction shields on scanned documents",
	Long: `shieldrev is a review tool for extraction shields: rectangular
regions of a scanned document excluded from text extraction. It loads
the resolved shield set for a case, lets a reviewer adjust apply modes
and targeting, and saves the result back as vendor or template rules.

Unsaved edits survive failed saves and restarts; they are snapshotted
locally per case and replayed into the next session.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
