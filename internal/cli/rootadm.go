package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "parlidadm",
	Short: "Administrative CLI for the parlid database lifecycle",
	Long: `parlidadm is the administrative companion to parlid. It handles database
lifecycle (init, migrate) and invariant audits: alias uniqueness,
referential completeness, orphaned identifiers, sequence drift.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	rootAdmCmd.PersistentFlags().String("db", "", "Path to database file (overrides PARLID_DB_PATH)")
}
