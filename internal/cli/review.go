package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/render"
	"github.com/mhenriquez/parlid/internal/review"
	"github.com/mhenriquez/parlid/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the manual follow-up queue",
	Long: `Review lists and resolves deferred candidates and unresolved mentions.
Resolving replays the candidate through the normal merge path, so
authority rules and provenance events apply exactly as in ingestion.`,
}

var (
	reviewKind   string
	reviewLimit  int
	reviewJSON   bool
	reviewTo     string
	reviewCreate bool
)

var reviewLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List pending review entries",
	RunE:  runReviewLs,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry with candidate-vs-person diffs",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

var reviewResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Bind an entry to a person (--to) or mint a new one (--create)",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewResolve,
}

var reviewDiscardCmd = &cobra.Command{
	Use:   "discard <id>",
	Short: "Discard an entry without touching the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewDiscard,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewLsCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewResolveCmd)
	reviewCmd.AddCommand(reviewDiscardCmd)

	reviewLsCmd.Flags().StringVar(&reviewKind, "kind", "", "Filter by kind (candidate, mention)")
	reviewLsCmd.Flags().IntVar(&reviewLimit, "limit", 50, "Maximum entries to list")
	reviewLsCmd.Flags().BoolVar(&reviewJSON, "json", false, "Output as JSON")
	reviewShowCmd.Flags().BoolVar(&reviewJSON, "json", false, "Output as JSON")

	reviewResolveCmd.Flags().StringVar(&reviewTo, "to", "", "Person to bind to (MP-00042 or mp_uid)")
	reviewResolveCmd.Flags().BoolVar(&reviewCreate, "create", false, "Mint a new person from the deferred candidate")
}

func runReviewLs(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := st.Review.ListPending(reviewKind, reviewLimit)
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, render.Options{})
	if reviewJSON {
		return r.RenderJSON(entries)
	}

	headers := []string{"ID", "KIND", "REASON", "SOURCE", "NAME", "CREATED"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID, e.Kind, e.Reason, string(e.Source),
			deref(e.RawName), e.CreatedAt.Format("2006-01-02"),
		})
	}
	if len(rows) == 0 {
		fmt.Println("Review queue is empty.")
		return nil
	}
	return r.RenderTable(headers, rows)
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	entry, err := st.Review.Get(args[0])
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, render.Options{})
	if reviewJSON {
		return r.RenderJSON(entry)
	}

	fmt.Printf("%s  %s  %s\n", entry.ID, entry.Kind, entry.Status)
	fmt.Printf("reason:  %s\n", entry.Reason)
	fmt.Printf("source:  %s", entry.Source)
	if sid := deref(entry.SourceID); sid != "" {
		fmt.Printf(" (%s)", sid)
	}
	fmt.Println()
	if name := deref(entry.RawName); name != "" {
		fmt.Printf("name:    %s\n", name)
	}

	if entry.Kind == "candidate" {
		if err := showCandidateDiffs(st, entry); err != nil {
			return err
		}
	}
	return nil
}

// showCandidateDiffs prints a unified diff of the deferred candidate against
// each stored person it could bind to.
func showCandidateDiffs(st *store.Store, entry *domain.ReviewEntry) error {
	c, err := review.Candidate(entry)
	if err != nil {
		return err
	}

	matches, err := st.Persons.Find(c.DisplayName(), 5)
	if err != nil {
		return err
	}
	for _, p := range matches {
		diff, err := review.ConflictDiff(c, p)
		if err != nil {
			return err
		}
		fmt.Printf("\n--- against %s (%s) ---\n%s", p.ID, p.NombreCompleto, diff)
	}
	if len(matches) == 0 {
		fmt.Println("\nno close stored persons found")
	}
	return nil
}

func runReviewResolve(cmd *cobra.Command, args []string) error {
	if (reviewTo == "" && !reviewCreate) || (reviewTo != "" && reviewCreate) {
		return fmt.Errorf("specify exactly one of --to or --create")
	}

	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := review.NewService(st)
	if reviewCreate {
		mpUID, err := svc.ResolveCreate(args[0])
		if err != nil {
			return err
		}
		person, err := st.Persons.Get(nil, mpUID)
		if err != nil {
			return err
		}
		fmt.Printf("resolved %s: created %s\n", args[0], person.ID)
		return nil
	}

	person, err := resolvePersonRef(st, reviewTo)
	if err != nil {
		return err
	}
	if err := svc.ResolveTo(args[0], person.MPUID); err != nil {
		return err
	}
	fmt.Printf("resolved %s: bound to %s (%s)\n", args[0], person.ID, person.NombreCompleto)
	return nil
}

func runReviewDiscard(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := review.NewService(st).Discard(args[0]); err != nil {
		return err
	}
	fmt.Printf("discarded %s\n", args[0])
	return nil
}
