// Package ingest drives one batch run: resolve candidates in a stable order,
// merge each inside its own transaction, then link dependent-fact mentions.
package ingest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/link"
	"github.com/mhenriquez/parlid/internal/merge"
	"github.com/mhenriquez/parlid/internal/resolve"
	"github.com/mhenriquez/parlid/internal/store"
)

// Runner executes one ingest run for one source system.
type Runner struct {
	store    *store.Store
	source   domain.SourceSystem
	runUUID  string
	snap     *resolve.Snapshot
	resolver *resolve.Resolver
	engine   *merge.Engine
	summary  domain.RunSummary
}

// Options tunes a run.
type Options struct {
	Threshold float64 // approximate-match acceptance; 0 means default
	Gap       float64 // ambiguity margin; 0 means default
}

// NewRunner snapshots the store and records the run start.
func NewRunner(s *store.Store, source domain.SourceSystem, opts Options) (*Runner, error) {
	if err := domain.ValidateSourceSystem(source); err != nil {
		return nil, err
	}

	snap, err := s.LoadSnapshot()
	if err != nil {
		return nil, err
	}

	runUUID := uuid.NewString()
	if err := s.Runs.Start(runUUID, source); err != nil {
		return nil, err
	}

	resolver := resolve.New(snap)
	if opts.Threshold > 0 {
		resolver.Threshold = opts.Threshold
	}
	if opts.Gap > 0 {
		resolver.Gap = opts.Gap
	}

	return &Runner{
		store:    s,
		source:   source,
		runUUID:  runUUID,
		snap:     snap,
		resolver: resolver,
		engine:   merge.New(s, runUUID),
		summary:  domain.RunSummary{RunUUID: runUUID, Source: source},
	}, nil
}

// RunUUID returns the run's identifier.
func (r *Runner) RunUUID() string {
	return r.runUUID
}

// Snapshot exposes the run's snapshot for linking after candidates merged.
func (r *Runner) Snapshot() *resolve.Snapshot {
	return r.snap
}

// ResolveCandidates resolves and merges a batch of candidates. Candidates are
// processed in a stable order so re-running the same input produces the same
// decisions. Candidate-local failures are counted, logged and skipped; only
// store-level failures abort the batch.
func (r *Runner) ResolveCandidates(candidates []domain.CandidateIdentity) error {
	ordered := make([]domain.CandidateIdentity, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SourceID != ordered[j].SourceID {
			return ordered[i].SourceID < ordered[j].SourceID
		}
		return ordered[i].DisplayName() < ordered[j].DisplayName()
	})

	for i := range ordered {
		if err := r.resolveOne(&ordered[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) resolveOne(c *domain.CandidateIdentity) error {
	outcome, err := r.resolver.Resolve(*c)
	var malformed *domain.MalformedCandidateError
	if errors.As(err, &malformed) {
		r.summary.Malformed++
		return r.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
			return ew.LogCandidateMalformed(tx, r.runUUID, c)
		})
	}
	if err != nil {
		return err
	}

	applied, err := r.engine.Apply(&outcome, c)
	if err != nil {
		return fmt.Errorf("failed to merge candidate (%s, %q): %w", c.Source, c.DisplayName(), err)
	}

	r.summary.Conflicts += applied.Conflicts
	switch applied.Kind {
	case domain.OutcomeCreated:
		r.summary.Created++
		r.observe(applied.MPUID, c)
	case domain.OutcomeMatched:
		r.summary.Matched++
		r.observe(applied.MPUID, c)
	case domain.OutcomeDeferred:
		r.summary.Deferred++
	}
	return nil
}

// observe extends the snapshot with a committed merge so later candidates in
// the same run resolve against it.
func (r *Runner) observe(mpUID int64, c *domain.CandidateIdentity) {
	if c.SourceID != "" {
		r.snap.AddIdentifier(c.Source, c.SourceID, mpUID)
	}
	name := c.DisplayName()
	if name != "" {
		if _, bound := r.snap.AliasBound(name); !bound {
			r.snap.AddAlias(name, mpUID)
		}
	}
	r.snap.AddPerson(mpUID, name, c.NombrePropio, c.ApellidoPaterno, c.ApellidoMaterno)
}

// LinkFacts resolves mentions against the post-merge snapshot and inserts the
// dependent facts they carry. Unresolved mentions are parked for review and
// never inserted with placeholder references.
func (r *Runner) LinkFacts(mentions []domain.RawMention) error {
	billIDs, err := r.store.Facts.ListBillIDs()
	if err != nil {
		return err
	}
	linker := link.New(r.snap, billIDs)

	for i := range mentions {
		if err := r.linkOne(linker, &mentions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) linkOne(linker *link.Linker, m *domain.RawMention) error {
	if err := domain.ValidateMentionKind(m.Kind); err != nil {
		return err
	}

	ref, err := linker.Resolve(m)
	var unresolved *domain.UnresolvedReferenceError
	if errors.As(err, &unresolved) {
		r.summary.Unresolved++
		return r.parkMention(m, unresolved)
	}
	if err != nil {
		return err
	}

	return r.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		inserted, err := r.insertFact(tx, m, ref)
		if err != nil {
			return err
		}
		if inserted {
			r.summary.Linked++
		}
		return nil
	})
}

func (r *Runner) insertFact(tx *sql.Tx, m *domain.RawMention, ref *domain.Reference) (bool, error) {
	switch m.Kind {
	case domain.MentionVote:
		if err := domain.ValidateVoto(m.Voto); err != nil {
			return false, err
		}
		return r.store.Facts.InsertVote(tx, ref.MPUID, ref.BillID, m.Voto, m.Fecha)
	case domain.MentionAuthorship:
		return r.store.Facts.InsertAuthor(tx, ref.BillID, ref.MPUID)
	case domain.MentionSpeech:
		return r.store.Facts.InsertSpeechTurn(tx, ref.MPUID, m.SessionID, m.Orden, m.Text, m.Fecha)
	case domain.MentionInteraction:
		err := r.store.Facts.InsertInteraction(tx, ref.MPUID, nil, string(m.Kind), m.SessionID, m.Fecha)
		return err == nil, err
	}
	return false, fmt.Errorf("unknown mention kind: %s", m.Kind)
}

func (r *Runner) parkMention(m *domain.RawMention, cause *domain.UnresolvedReferenceError) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode mention payload: %w", err)
	}

	return r.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		_, err := r.store.Review.Add(tx, store.AddParams{
			Kind:     "mention",
			Reason:   cause.Error(),
			Source:   m.Source,
			SourceID: m.SourceID,
			RawName:  m.Text,
			Payload:  string(payload),
			RunUUID:  r.runUUID,
		})
		if err != nil {
			return err
		}
		return ew.LogMentionUnresolved(tx, r.runUUID, m, cause)
	})
}

// Finish writes the run's final counts and returns the summary.
func (r *Runner) Finish() (*domain.RunSummary, error) {
	if err := r.store.Runs.Finish(r.runUUID, &r.summary); err != nil {
		return nil, err
	}
	return &r.summary, nil
}
