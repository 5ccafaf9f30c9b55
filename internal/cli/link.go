package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/ingest"
	"github.com/mhenriquez/parlid/internal/source"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link dependent-fact mentions to resolved persons",
	Long: `Link resolves legislator mentions inside dependent facts (votes, bill
authorships) by identifier lookup and records the facts against canonical
persons. Mentions that do not resolve are parked for review; nothing is
inserted with a placeholder reference.`,
}

var (
	linkSource string
	linkJSON   bool
	linkBill   string
	linkFetch  bool
)

var linkVotesCmd = &cobra.Command{
	Use:   "votes [file]",
	Short: "Link individual vote records",
	Long: `Votes come either from a mention NDJSON file or, with --fetch, straight
from the chamber's vote-detail endpoint for one bulletin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkFetch {
			if len(args) > 0 {
				return fmt.Errorf("--fetch takes no file argument")
			}
			if linkBill == "" {
				return fmt.Errorf("--fetch requires --bill")
			}
			return runLinkVotesFetch(cmd)
		}
		if len(args) != 1 {
			return fmt.Errorf("provide a mention file or use --fetch --bill")
		}
		return runLink(cmd, args[0], domain.MentionVote)
	},
}

var linkAuthorsCmd = &cobra.Command{
	Use:   "authors <file>",
	Short: "Link bill authorship records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLink(cmd, args[0], domain.MentionAuthorship)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkVotesCmd)
	linkCmd.AddCommand(linkAuthorsCmd)

	linkCmd.PersistentFlags().StringVar(&linkSource, "source", "camara", "Source system the mentions came from")
	linkCmd.PersistentFlags().BoolVar(&linkJSON, "json", false, "Output run summary as JSON")
	linkVotesCmd.Flags().StringVar(&linkBill, "bill", "", "Bulletin number to fetch vote detail for (e.g. 15665-07)")
	linkVotesCmd.Flags().BoolVar(&linkFetch, "fetch", false, "Fetch the vote detail from the chamber instead of reading a file")
}

// runLinkVotesFetch pulls one bulletin's vote detail from the chamber,
// registers the bill and links the ballots.
func runLinkVotesFetch(cmd *cobra.Command) error {
	cfg, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	raw, err := newFetcher(cfg).Fetch(cmd.Context(), domain.SourceCamara, source.CamaraVoteResource(linkBill))
	if err != nil {
		return err
	}
	mentions, err := source.ParseVoteDetail(linkBill, raw)
	if err != nil {
		return err
	}

	err = st.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		return st.Facts.UpsertBill(tx, linkBill, "", "")
	})
	if err != nil {
		return err
	}

	runner, err := ingest.NewRunner(st, domain.SourceCamara, ingest.Options{})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "run %s: linking %d ballots for bulletin %s\n", runner.RunUUID(), len(mentions), linkBill)

	if err := runner.LinkFacts(mentions); err != nil {
		return err
	}

	summary, err := runner.Finish()
	if err != nil {
		return err
	}
	return printSummary(summary, linkJSON)
}

func runLink(cmd *cobra.Command, file string, kind domain.MentionKind) error {
	src, err := parseSource(linkSource)
	if err != nil {
		return err
	}

	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	mentions, err := readMentionsArg(file)
	if err != nil {
		return err
	}
	for i := range mentions {
		if mentions[i].Kind == "" {
			mentions[i].Kind = kind
		}
		if mentions[i].Kind != kind {
			return fmt.Errorf("line carries a %s mention, expected %s", mentions[i].Kind, kind)
		}
		if mentions[i].Source == "" {
			mentions[i].Source = src
		}
	}

	runner, err := ingest.NewRunner(st, src, ingest.Options{})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "run %s: linking %d %s mentions\n", runner.RunUUID(), len(mentions), kind)

	if err := runner.LinkFacts(mentions); err != nil {
		return err
	}

	summary, err := runner.Finish()
	if err != nil {
		return err
	}
	return printSummary(summary, linkJSON)
}
