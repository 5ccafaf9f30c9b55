package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/config"
	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/ingest"
	"github.com/mhenriquez/parlid/internal/render"
	"github.com/mhenriquez/parlid/internal/source"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <source>",
	Short: "Resolve and merge candidate identities from one source",
	Long: `Ingest reads normalized candidate records (NDJSON) and resolves each one
against the canonical identity store: exact identifier match, exact
normalized name match, then approximate similarity. Matches merge under
source-authority rules, new identities are minted, ambiguous cases go to
the review queue. Re-running the same input is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var (
	ingestFile      string
	ingestMentions  string
	ingestFetch     bool
	ingestThreshold float64
	ingestGap       float64
	ingestJSON      bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "-", "Candidate NDJSON file (- for stdin)")
	ingestCmd.Flags().StringVar(&ingestMentions, "mentions", "", "Optional mention NDJSON file to link after merging")
	ingestCmd.Flags().BoolVar(&ingestFetch, "fetch", false, "Fetch the source's live payloads instead of reading a file")
	ingestCmd.Flags().Float64Var(&ingestThreshold, "threshold", 0, "Approximate-match acceptance threshold (default from config)")
	ingestCmd.Flags().Float64Var(&ingestGap, "gap", 0, "Ambiguity gap below which matches are deferred (default from config)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Output run summary as JSON")
}

func runIngest(cmd *cobra.Command, args []string) error {
	src, err := parseSource(args[0])
	if err != nil {
		return err
	}

	if ingestFetch && cmd.Flags().Changed("file") {
		return fmt.Errorf("--fetch and --file are mutually exclusive")
	}

	cfg, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	opts := ingest.Options{Threshold: cfg.Threshold, Gap: cfg.Gap}
	if ingestThreshold > 0 {
		opts.Threshold = ingestThreshold
	}
	if ingestGap > 0 {
		opts.Gap = ingestGap
	}

	runner, err := ingest.NewRunner(st, src, opts)
	if err != nil {
		return err
	}

	if ingestFetch {
		if err := runFetchIngest(cmd, cfg, runner, src); err != nil {
			return err
		}
	} else {
		candidates, err := readCandidatesArg(ingestFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: resolving %d candidates from %s\n", runner.RunUUID(), len(candidates), src)
		if err := runner.ResolveCandidates(candidates); err != nil {
			return err
		}
	}

	if ingestMentions != "" {
		mentions, err := readMentionsArg(ingestMentions)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: linking %d mentions\n", runner.RunUUID(), len(mentions))
		if err := runner.LinkFacts(mentions); err != nil {
			return err
		}
	}

	summary, err := runner.Finish()
	if err != nil {
		return err
	}
	return printSummary(summary, ingestJSON)
}

// runFetchIngest pulls the source's live payloads through the cached fetcher.
// The chamber contributes its roster plus the committee catalog; the library
// contributes biography profiles. Other sources have no fetchable surface.
func runFetchIngest(cmd *cobra.Command, cfg *config.Config, runner *ingest.Runner, src domain.SourceSystem) error {
	ctx := cmd.Context()
	fetcher := newFetcher(cfg)

	switch src {
	case domain.SourceCamara:
		raw, err := fetcher.Fetch(ctx, src, source.CamaraRosterResource)
		if err != nil {
			return err
		}
		records, err := source.ParseRoster(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: resolving %d roster entries from %s\n", runner.RunUUID(), len(records), src)
		if err := runner.IngestRoster(records); err != nil {
			return err
		}

		raw, err = fetcher.Fetch(ctx, src, source.CamaraComisionesResource)
		if err != nil {
			return err
		}
		comisiones, err := source.ParseComisiones(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: refreshing %d committees\n", runner.RunUUID(), len(comisiones))
		return runner.IngestComisiones(comisiones)

	case domain.SourceBCN:
		raw, err := fetcher.Fetch(ctx, src, source.BCNProfilesResource)
		if err != nil {
			return err
		}
		profiles, err := source.ParseBCNProfiles(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: merging %d profiles from %s\n", runner.RunUUID(), len(profiles), src)
		return runner.IngestProfiles(profiles)
	}
	return fmt.Errorf("source %s has no fetchable endpoint, ingest it from a file", src)
}

func printSummary(s *domain.RunSummary, asJSON bool) error {
	r := render.NewRenderer(os.Stdout, render.Options{})
	if asJSON {
		return r.RenderJSON(s)
	}
	headers := []string{"RUN", "SOURCE", "MATCHED", "CREATED", "DEFERRED", "MALFORMED", "CONFLICTS", "LINKED", "UNRESOLVED"}
	rows := [][]string{{
		s.RunUUID, string(s.Source),
		fmt.Sprint(s.Matched), fmt.Sprint(s.Created), fmt.Sprint(s.Deferred),
		fmt.Sprint(s.Malformed), fmt.Sprint(s.Conflicts),
		fmt.Sprint(s.Linked), fmt.Sprint(s.Unresolved),
	}}
	return r.RenderTable(headers, rows)
}

func readCandidatesArg(path string) ([]domain.CandidateIdentity, error) {
	r, closeFn, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return source.ReadCandidates(r)
}

func readMentionsArg(path string) ([]domain.RawMention, error) {
	r, closeFn, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return source.ReadMentions(r)
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, f.Close, nil
}
