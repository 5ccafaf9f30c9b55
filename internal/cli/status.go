package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/render"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and pending review count",
	RunE:  runStatus,
}

var (
	statusJSON  bool
	statusLimit int
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := st.Runs.List(statusLimit)
	if err != nil {
		return err
	}
	pending, err := st.Review.PendingCount()
	if err != nil {
		return err
	}
	persons, err := st.Persons.Count()
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, render.Options{})
	if statusJSON {
		return r.RenderJSON(map[string]interface{}{
			"persons":        persons,
			"pending_review": pending,
			"runs":           runs,
		})
	}

	fmt.Printf("persons: %d   pending review: %d\n\n", persons, pending)
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	headers := []string{"STARTED", "SOURCE", "MATCHED", "CREATED", "DEFERRED", "CONFLICTS", "LINKED", "UNRESOLVED"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04"), string(run.Source),
			fmt.Sprint(run.Matched), fmt.Sprint(run.Created), fmt.Sprint(run.Deferred),
			fmt.Sprint(run.Conflicts), fmt.Sprint(run.Linked), fmt.Sprint(run.Unresolved),
		})
	}
	return r.RenderTable(headers, rows)
}
