package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/db"
	"github.com/mhenriquez/parlid/internal/render"
)

var checkAdmCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit store invariants",
	Long: `Check audits the invariants the engine relies on: alias uniqueness,
referential completeness of dependent facts, orphaned identifiers, and
friendly-ID sequence drift. Use --fix to repair sequence drift.`,
	RunE: runCheckAdm,
}

var (
	checkAdmJSON bool
	checkAdmFix  bool
)

type checkResult struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"` // "ok", "warning", "error"
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func init() {
	rootAdmCmd.AddCommand(checkAdmCmd)
	checkAdmCmd.Flags().BoolVar(&checkAdmJSON, "json", false, "Output as JSON")
	checkAdmCmd.Flags().BoolVar(&checkAdmFix, "fix", false, "Repair sequence drift")
}

func runCheckAdm(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	var checks []checkResult

	// Alias uniqueness: one normalized alias, one person.
	dupes, err := st.Aliases.DuplicateNormAliases()
	if err != nil {
		return err
	}
	if len(dupes) == 0 {
		checks = append(checks, checkResult{Name: "alias_uniqueness", Status: "ok"})
	} else {
		checks = append(checks, checkResult{
			Name:    "alias_uniqueness",
			Status:  "error",
			Message: fmt.Sprintf("%d normalized aliases bound to multiple persons", len(dupes)),
			Details: dupes,
		})
	}

	// Referential completeness: dependent facts must point at live persons.
	orphans, err := st.Facts.OrphanFactCounts()
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		checks = append(checks, checkResult{Name: "referential_completeness", Status: "ok"})
	} else {
		var details []string
		for table, n := range orphans {
			details = append(details, fmt.Sprintf("%s: %d orphaned rows", table, n))
		}
		checks = append(checks, checkResult{
			Name:    "referential_completeness",
			Status:  "error",
			Message: "dependent facts reference missing persons",
			Details: details,
		})
	}

	// Orphaned identifiers.
	var orphanIDs int
	err = database.QueryRow(`
		SELECT COUNT(*) FROM parlamentario_ids i
		WHERE NOT EXISTS (SELECT 1 FROM dim_parlamentario p WHERE p.mp_uid = i.mp_uid)
	`).Scan(&orphanIDs)
	if err != nil {
		return fmt.Errorf("failed to check identifiers: %w", err)
	}
	if orphanIDs == 0 {
		checks = append(checks, checkResult{Name: "identifier_bindings", Status: "ok"})
	} else {
		checks = append(checks, checkResult{
			Name:    "identifier_bindings",
			Status:  "error",
			Message: fmt.Sprintf("%d identifiers bound to missing persons", orphanIDs),
		})
	}

	// Friendly-ID sequence drift.
	specs := db.DefaultSequenceSpecs()
	if checkAdmFix {
		fixed, err := db.FixSequenceDrifts(database.DB, specs)
		if err != nil {
			return err
		}
		if len(fixed) == 0 {
			checks = append(checks, checkResult{Name: "sequence_drift", Status: "ok"})
		} else {
			var details []string
			for _, d := range fixed {
				details = append(details, fmt.Sprintf("%s: seq %d -> %d", d.Table, d.SeqValue, d.MaxID))
			}
			checks = append(checks, checkResult{
				Name:    "sequence_drift",
				Status:  "warning",
				Message: fmt.Sprintf("repaired %d sequence(s)", len(fixed)),
				Details: details,
			})
		}
	} else {
		drifts, err := db.SequenceDrifts(database.DB, specs)
		if err != nil {
			return err
		}
		if len(drifts) == 0 {
			checks = append(checks, checkResult{Name: "sequence_drift", Status: "ok"})
		} else {
			var details []string
			for _, d := range drifts {
				details = append(details, fmt.Sprintf("%s: seq %d below max %d", d.Table, d.SeqValue, d.MaxID))
			}
			checks = append(checks, checkResult{
				Name:    "sequence_drift",
				Status:  "warning",
				Message: "run with --fix to repair",
				Details: details,
			})
		}
	}

	if checkAdmJSON {
		return render.NewRenderer(os.Stdout, render.Options{}).RenderJSON(checks)
	}

	failed := false
	for _, c := range checks {
		fmt.Printf("%-26s %s", c.Name, c.Status)
		if c.Message != "" {
			fmt.Printf("  (%s)", c.Message)
		}
		fmt.Println()
		for _, d := range c.Details {
			fmt.Printf("    %s\n", d)
		}
		if c.Status == "error" {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("invariant check failed")
	}
	return nil
}
