package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/config"
	"github.com/mhenriquez/parlid/internal/db"
)

var initAdmCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the parlid database",
	Long: `Init creates the SQLite database, runs all migrations, and creates the
fetch cache directory. Safe to run on an existing database; it only
applies what is missing.`,
	RunE: runInitAdm,
}

func init() {
	rootAdmCmd.AddCommand(initAdmCmd)
}

func runInitAdm(cmd *cobra.Command, args []string) error {
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

	applied, err := database.MigrateWithInfo()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	fmt.Printf("Database initialized at %s\n", cfg.DBPath)
	if len(applied) > 0 {
		fmt.Printf("Applied %d migration(s)\n", len(applied))
	}
	fmt.Printf("Cache directory at %s\n", cfg.CacheDir)
	return nil
}
