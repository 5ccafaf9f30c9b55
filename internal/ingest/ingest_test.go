package ingest

import (
	"database/sql"
	"testing"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/store"
	"github.com/mhenriquez/parlid/internal/testutil"
)

func rosterBatch() []domain.CandidateIdentity {
	return []domain.CandidateIdentity{
		{
			Source:          domain.SourceCamara,
			SourceID:        "101",
			RawName:         "Juan Pérez Soto",
			NombrePropio:    "Juan",
			ApellidoPaterno: "Pérez",
			ApellidoMaterno: "Soto",
		},
		{
			Source:          domain.SourceCamara,
			SourceID:        "102",
			RawName:         "María Muñoz Rojas",
			NombrePropio:    "María",
			ApellidoPaterno: "Muñoz",
			ApellidoMaterno: "Rojas",
		},
	}
}

func runBatch(t *testing.T, s *store.Store, candidates []domain.CandidateIdentity) *domain.RunSummary {
	t.Helper()
	runner, err := NewRunner(s, domain.SourceCamara, Options{})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.ResolveCandidates(candidates); err != nil {
		t.Fatalf("ResolveCandidates failed: %v", err)
	}
	summary, err := runner.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	return summary
}

func TestRun_CreatesPersonsFromEmptyStore(t *testing.T) {
	s := testutil.TempStore(t)
	summary := runBatch(t, s, rosterBatch())

	testutil.AssertEqual(t, 2, summary.Created)
	testutil.AssertEqual(t, 0, summary.Matched)
	testutil.AssertEqual(t, 0, summary.Deferred)

	n, err := s.Persons.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, n)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	s := testutil.TempStore(t)
	runBatch(t, s, rosterBatch())

	summary := runBatch(t, s, rosterBatch())
	testutil.AssertEqual(t, 0, summary.Created)
	testutil.AssertEqual(t, 2, summary.Matched)
	testutil.AssertEqual(t, 0, summary.Conflicts)

	n, err := s.Persons.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, n)
}

// Two records for the same person inside one batch may not fork identities:
// the second resolves against the snapshot extended by the first.
func TestRun_WithinRunDuplicateDoesNotFork(t *testing.T) {
	s := testutil.TempStore(t)
	batch := rosterBatch()
	batch = append(batch, batch[0])

	summary := runBatch(t, s, batch)
	testutil.AssertEqual(t, 2, summary.Created)
	testutil.AssertEqual(t, 1, summary.Matched)

	n, err := s.Persons.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, n)
}

func TestRun_MalformedCandidateSkipped(t *testing.T) {
	s := testutil.TempStore(t)
	batch := append(rosterBatch(), domain.CandidateIdentity{Source: domain.SourceCamara})

	summary := runBatch(t, s, batch)
	testutil.AssertEqual(t, 2, summary.Created)
	testutil.AssertEqual(t, 1, summary.Malformed)

	var n int
	err := s.DB().QueryRow("SELECT COUNT(*) FROM event_log WHERE event_type = 'candidate.malformed'").Scan(&n)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, n)
}

func TestRun_AmbiguousFreeTextDeferred(t *testing.T) {
	s := testutil.TempStore(t)
	runBatch(t, s, []domain.CandidateIdentity{
		{Source: domain.SourceCamara, SourceID: "101", RawName: "Juan Pérez Soto",
			NombrePropio: "Juan", ApellidoPaterno: "Pérez", ApellidoMaterno: "Soto"},
		{Source: domain.SourceCamara, SourceID: "103", RawName: "Pedro Pérez Lagos",
			NombrePropio: "Pedro", ApellidoPaterno: "Pérez", ApellidoMaterno: "Lagos"},
	})

	runner, err := NewRunner(s, domain.SourceFreeText, Options{})
	testutil.AssertNoError(t, err)
	err = runner.ResolveCandidates([]domain.CandidateIdentity{
		{Source: domain.SourceFreeText, RawName: "diputado Pérez"},
	})
	testutil.AssertNoError(t, err)
	summary, err := runner.Finish()
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, 1, summary.Deferred)
	pending, err := s.Review.PendingCount()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, pending)
}

func TestRun_LinksVotesAndParksUnresolved(t *testing.T) {
	s := testutil.TempStore(t)
	runBatch(t, s, rosterBatch())

	err := s.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		return s.Facts.UpsertBill(tx, "15665-07", "Reforma tributaria", "2023-05-02")
	})
	testutil.AssertNoError(t, err)

	runner, err := NewRunner(s, domain.SourceCamara, Options{})
	testutil.AssertNoError(t, err)
	err = runner.LinkFacts([]domain.RawMention{
		{Kind: domain.MentionVote, Source: domain.SourceCamara, SourceID: "101",
			BillID: "15665-07", Voto: "Afirmativo", Fecha: "2023-06-01"},
		{Kind: domain.MentionVote, Source: domain.SourceCamara, SourceID: "102",
			BillID: "15665-07", Voto: "En Contra", Fecha: "2023-06-01"},
		// Unknown legislator id: parked, never inserted with a placeholder.
		{Kind: domain.MentionVote, Source: domain.SourceCamara, SourceID: "999",
			BillID: "15665-07", Voto: "Afirmativo", Fecha: "2023-06-01"},
	})
	testutil.AssertNoError(t, err)

	summary, err := runner.Finish()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, summary.Linked)
	testutil.AssertEqual(t, 1, summary.Unresolved)

	pending, err := s.Review.ListPending("mention", 0)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, len(pending))

	var n int
	err = s.DB().QueryRow("SELECT COUNT(*) FROM votos_parlamentario").Scan(&n)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, n)
}

func TestRun_RelinkVotesIsIdempotent(t *testing.T) {
	s := testutil.TempStore(t)
	runBatch(t, s, rosterBatch())

	err := s.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		return s.Facts.UpsertBill(tx, "15665-07", "Reforma tributaria", "")
	})
	testutil.AssertNoError(t, err)

	mentions := []domain.RawMention{
		{Kind: domain.MentionVote, Source: domain.SourceCamara, SourceID: "101",
			BillID: "15665-07", Voto: "Afirmativo", Fecha: "2023-06-01"},
	}

	for i := 0; i < 2; i++ {
		runner, err := NewRunner(s, domain.SourceCamara, Options{})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, runner.LinkFacts(mentions))
		if _, err := runner.Finish(); err != nil {
			t.Fatalf("Finish failed: %v", err)
		}
	}

	var n int
	err = s.DB().QueryRow("SELECT COUNT(*) FROM votos_parlamentario").Scan(&n)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, n)
}

func TestRun_SummaryPersisted(t *testing.T) {
	s := testutil.TempStore(t)
	summary := runBatch(t, s, rosterBatch())

	stored, err := s.Runs.Get(summary.RunUUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, stored.Created)
	testutil.AssertEqual(t, domain.SourceCamara, stored.Source)
	if stored.FinishedAt == nil {
		t.Error("expected a finish timestamp")
	}
}

func TestRun_TunablesRespected(t *testing.T) {
	s := testutil.TempStore(t)
	runBatch(t, s, rosterBatch()[:1])

	// With a lowered threshold the near-miss becomes an accepted match.
	runner, err := NewRunner(s, domain.SourceFreeText, Options{Threshold: 0.6, Gap: 0.05})
	testutil.AssertNoError(t, err)
	err = runner.ResolveCandidates([]domain.CandidateIdentity{
		{Source: domain.SourceFreeText, RawName: "John Pérez"},
	})
	testutil.AssertNoError(t, err)
	summary, err := runner.Finish()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, summary.Matched)
}
