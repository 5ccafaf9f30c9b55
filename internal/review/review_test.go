package review

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/merge"
	"github.com/mhenriquez/parlid/internal/store"
	"github.com/mhenriquez/parlid/internal/testutil"
)

func seedPerson(t *testing.T, s *store.Store, c domain.CandidateIdentity) int64 {
	t.Helper()
	applied, err := merge.New(s, "run-seed").Apply(&domain.Outcome{Kind: domain.OutcomeCreated}, &c)
	if err != nil {
		t.Fatalf("failed to seed person: %v", err)
	}
	return applied.MPUID
}

func enqueueCandidate(t *testing.T, s *store.Store, c domain.CandidateIdentity) string {
	t.Helper()
	payload, err := json.Marshal(c)
	testutil.AssertNoError(t, err)

	var entryUUID string
	err = s.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		entryUUID, err = s.Review.Add(tx, store.AddParams{
			Kind:    "candidate",
			Reason:  string(domain.DeferAmbiguousMatch),
			Source:  c.Source,
			RawName: c.DisplayName(),
			Payload: string(payload),
			RunUUID: "run-seed",
		})
		return err
	})
	testutil.AssertNoError(t, err)
	return entryUUID
}

func enqueueMention(t *testing.T, s *store.Store, m domain.RawMention) string {
	t.Helper()
	payload, err := json.Marshal(m)
	testutil.AssertNoError(t, err)

	var entryUUID string
	err = s.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		entryUUID, err = s.Review.Add(tx, store.AddParams{
			Kind:     "mention",
			Reason:   "unresolved reference",
			Source:   m.Source,
			SourceID: m.SourceID,
			RawName:  m.Text,
			Payload:  string(payload),
		})
		return err
	})
	testutil.AssertNoError(t, err)
	return entryUUID
}

func TestResolveTo_Candidate(t *testing.T) {
	s := testutil.TempStore(t)
	mpUID := seedPerson(t, s, domain.CandidateIdentity{
		Source: domain.SourceCamara, SourceID: "101", RawName: "Juan Pérez Soto",
	})
	entryUUID := enqueueCandidate(t, s, domain.CandidateIdentity{
		Source:  domain.SourceFreeText,
		RawName: "diputado Juan Pérez",
		Bio:     domain.Bio{Profesion: "Abogado"},
	})

	svc := NewService(s)
	testutil.AssertNoError(t, svc.ResolveTo(entryUUID, mpUID))

	entry, err := s.Review.Get(entryUUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, domain.ReviewResolved, entry.Status)
	if entry.ResolvedMPUID == nil || *entry.ResolvedMPUID != mpUID {
		t.Errorf("expected resolution against mp_uid %d, got %v", mpUID, entry.ResolvedMPUID)
	}

	// Binding replays the merge: the candidate's alias and attributes land on
	// the chosen person under the usual authority rules.
	person, err := s.Persons.Get(nil, mpUID)
	testutil.AssertNoError(t, err)
	if person.Profesion == nil || *person.Profesion != "Abogado" {
		t.Errorf("expected profesion merged, got %v", person.Profesion)
	}
	bound, ok, err := s.Aliases.Bound(nil, "diputado Juan Pérez")
	testutil.AssertNoError(t, err)
	if !ok || bound != mpUID {
		t.Errorf("expected alias bound to mp_uid %d, got (%d, %v)", mpUID, bound, ok)
	}

	// A second resolution attempt is refused.
	testutil.AssertError(t, svc.ResolveTo(entryUUID, mpUID))
}

func TestResolveTo_UnknownPerson(t *testing.T) {
	s := testutil.TempStore(t)
	entryUUID := enqueueCandidate(t, s, domain.CandidateIdentity{
		Source: domain.SourceFreeText, RawName: "diputado Pérez",
	})

	svc := NewService(s)
	testutil.AssertError(t, svc.ResolveTo(entryUUID, 999))

	entry, err := s.Review.Get(entryUUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, domain.ReviewPending, entry.Status)
}

func TestResolveTo_Mention(t *testing.T) {
	s := testutil.TempStore(t)
	mpUID := seedPerson(t, s, domain.CandidateIdentity{
		Source: domain.SourceCamara, SourceID: "101", RawName: "Juan Pérez Soto",
	})
	err := s.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		return s.Facts.UpsertBill(tx, "15665-07", "Reforma tributaria", "")
	})
	testutil.AssertNoError(t, err)

	entryUUID := enqueueMention(t, s, domain.RawMention{
		Kind: domain.MentionVote, Source: domain.SourceFreeText,
		Text: "Juan Peres", BillID: "15665-07", Voto: "Afirmativo", Fecha: "2023-06-01",
	})

	svc := NewService(s)
	testutil.AssertNoError(t, svc.ResolveTo(entryUUID, mpUID))

	n, err := s.Facts.CountVotesByPerson(mpUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, n)
}

func TestResolveCreate(t *testing.T) {
	s := testutil.TempStore(t)
	entryUUID := enqueueCandidate(t, s, domain.CandidateIdentity{
		Source:          domain.SourceFreeText,
		RawName:         "Gabriela Contreras Vidal",
		NombrePropio:    "Gabriela",
		ApellidoPaterno: "Contreras",
		ApellidoMaterno: "Vidal",
	})

	svc := NewService(s)
	mpUID, err := svc.ResolveCreate(entryUUID)
	testutil.AssertNoError(t, err)
	if mpUID == 0 {
		t.Fatal("expected a minted mp_uid")
	}

	person, err := s.Persons.Get(nil, mpUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "Gabriela Contreras Vidal", person.NombreCompleto)

	entry, err := s.Review.Get(entryUUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, domain.ReviewResolved, entry.Status)
}

func TestDiscard(t *testing.T) {
	s := testutil.TempStore(t)
	entryUUID := enqueueCandidate(t, s, domain.CandidateIdentity{
		Source: domain.SourceFreeText, RawName: "diputado Pérez",
	})

	svc := NewService(s)
	testutil.AssertNoError(t, svc.Discard(entryUUID))

	entry, err := s.Review.Get(entryUUID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, domain.ReviewDiscarded, entry.Status)

	n, err := s.Persons.Count()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 0, n)
}

func TestCandidateDecoding(t *testing.T) {
	payload := `{"source_system":"freetext","raw_name":"diputado Pérez"}`
	entry := &domain.ReviewEntry{ID: "RQ-00001", Kind: "candidate", Payload: &payload}

	c, err := Candidate(entry)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "diputado Pérez", c.RawName)

	// Kind mismatch is an error, not a silent empty decode.
	entry.Kind = "mention"
	if _, err := Candidate(entry); err == nil {
		t.Error("expected an error for kind mismatch")
	}

	noPayload := &domain.ReviewEntry{ID: "RQ-00002", Kind: "mention"}
	if _, err := Mention(noPayload); err == nil {
		t.Error("expected an error for a missing payload")
	}
}

func TestConflictDiff(t *testing.T) {
	propio := "Juan"
	profesion := "Ingeniero"
	p := &domain.Person{
		ID:             "MP-00001",
		NombreCompleto: "Juan Pérez Soto",
		NombrePropio:   &propio,
		Profesion:      &profesion,
	}
	c := &domain.CandidateIdentity{
		Source:  domain.SourceBCN,
		RawName: "Juan Pérez Soto",
		Bio:     domain.Bio{Profesion: "Abogado"},
	}

	diff, err := ConflictDiff(c, p)
	testutil.AssertNoError(t, err)
	if !strings.Contains(diff, "-profesion: Ingeniero") || !strings.Contains(diff, "+profesion: Abogado") {
		t.Errorf("diff should show the disagreeing attribute:\n%s", diff)
	}
	if !strings.Contains(diff, "MP-00001") {
		t.Errorf("diff header should name the person:\n%s", diff)
	}
}
