package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/config"
	"github.com/mhenriquez/parlid/internal/db"
)

var migrateAdmCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run any pending database migrations",
	Long: `Migrate applies any pending SQL migrations to the database.

Migrations are embedded in the parlidadm binary and tracked via the
schema_migrations table. Each migration file is applied exactly once, so
the command is safe to run repeatedly.

Use --dry-run to see which migrations would be applied without running them.
Use --status to show the current migration status.`,
	RunE: runMigrateAdm,
}

var (
	migrateDryRun bool
	migrateStatus bool
)

func init() {
	rootAdmCmd.AddCommand(migrateAdmCmd)

	migrateAdmCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Show which migrations would be applied without running them")
	migrateAdmCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show current migration status")
}

func runMigrateAdm(cmd *cobra.Command, args []string) error {
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

	if migrateStatus || migrateDryRun {
		applied, pending, err := database.MigrationStatus()
		if err != nil {
			return err
		}
		if migrateStatus {
			fmt.Printf("Applied: %d\n", len(applied))
			for _, m := range applied {
				fmt.Printf("  %s\n", m)
			}
		}
		if len(pending) == 0 {
			fmt.Println("Database is up to date. No migrations to apply.")
			return nil
		}
		fmt.Printf("Pending: %d\n", len(pending))
		for _, m := range pending {
			fmt.Printf("  %s\n", m)
		}
		return nil
	}

	applied, err := database.MigrateWithInfo()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) == 0 {
		fmt.Println("Database is up to date. No migrations to apply.")
		return nil
	}
	for _, m := range applied {
		fmt.Printf("Applied %s\n", m)
	}
	return nil
}
