package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/config"
	"github.com/mhenriquez/parlid/internal/db"
)

var statusAdmCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database path, schema version and table counts",
	RunE:  runStatusAdm,
}

func init() {
	rootAdmCmd.AddCommand(statusAdmCmd)
}

func runStatusAdm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		return err
	}
	version := "none"
	if len(applied) > 0 {
		version = applied[len(applied)-1]
	}

	fmt.Printf("database: %s\n", cfg.DBPath)
	fmt.Printf("schema:   %s (%d pending)\n", version, len(pending))
	if len(pending) > 0 {
		return nil
	}

	for _, table := range []string{
		"dim_parlamentario", "parlamentario_ids", "parlamentario_aliases",
		"dim_partidos", "dim_comisiones", "bills", "votos_parlamentario",
		"review_queue", "event_log", "ingest_runs",
	} {
		var n int
		if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		fmt.Printf("%-24s %d\n", table, n)
	}
	return nil
}
