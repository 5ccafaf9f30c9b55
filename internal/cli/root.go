// Package cli implements the parlid and parlidadm command trees.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parlid",
	Short: "Identity resolution and consolidation for parliamentary data",
	Long: `parlid ingests legislator records from the chamber, senate and library
sources, resolves each against the canonical identity store, and links
dependent facts (votes, authorships, speeches) to resolved persons.
Ambiguous cases are parked in a review queue instead of guessed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to database file (overrides PARLID_DB_PATH)")
}
