// Package review implements the manual follow-up workflow for deferred
// candidates and unresolved mentions.
package review

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/merge"
	"github.com/mhenriquez/parlid/internal/store"
)

// Service drives review queue resolution. Binding a deferred candidate goes
// through the same merge engine as ingestion, so authority rules and
// provenance events apply identically.
type Service struct {
	store *store.Store
}

// NewService creates a review service over the store.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Candidate decodes the candidate payload of an entry.
func Candidate(entry *domain.ReviewEntry) (*domain.CandidateIdentity, error) {
	if entry.Kind != "candidate" {
		return nil, fmt.Errorf("review entry %s is a %s, not a candidate", entry.ID, entry.Kind)
	}
	if entry.Payload == nil {
		return nil, fmt.Errorf("review entry %s has no payload", entry.ID)
	}
	var c domain.CandidateIdentity
	if err := json.Unmarshal([]byte(*entry.Payload), &c); err != nil {
		return nil, fmt.Errorf("failed to decode candidate payload: %w", err)
	}
	return &c, nil
}

// Mention decodes the mention payload of an entry.
func Mention(entry *domain.ReviewEntry) (*domain.RawMention, error) {
	if entry.Kind != "mention" {
		return nil, fmt.Errorf("review entry %s is a %s, not a mention", entry.ID, entry.Kind)
	}
	if entry.Payload == nil {
		return nil, fmt.Errorf("review entry %s has no payload", entry.ID)
	}
	var m domain.RawMention
	if err := json.Unmarshal([]byte(*entry.Payload), &m); err != nil {
		return nil, fmt.Errorf("failed to decode mention payload: %w", err)
	}
	return &m, nil
}

// ResolveTo binds a pending entry to an existing person. For candidates this
// replays the merge against the chosen person; for mentions it inserts the
// dependent fact the mention carried.
func (s *Service) ResolveTo(ref string, mpUID int64) error {
	entry, err := s.store.Review.Get(ref)
	if err != nil {
		return err
	}
	if entry.Status != domain.ReviewPending {
		return fmt.Errorf("review entry %s is already %s", entry.ID, entry.Status)
	}
	if _, err := s.store.Persons.Get(nil, mpUID); err != nil {
		return err
	}

	switch entry.Kind {
	case "candidate":
		c, err := Candidate(entry)
		if err != nil {
			return err
		}
		engine := merge.New(s.store, runUUID(entry))
		outcome := domain.Outcome{Kind: domain.OutcomeMatched, MPUID: mpUID}
		if _, err := engine.Apply(&outcome, c); err != nil {
			return err
		}
	case "mention":
		m, err := Mention(entry)
		if err != nil {
			return err
		}
		if err := s.insertMentionFact(m, mpUID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown review entry kind: %s", entry.Kind)
	}

	return s.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		if err := s.store.Review.Resolve(tx, entry.UUID, mpUID); err != nil {
			return err
		}
		return ew.LogReviewResolved(tx, entry.UUID, domain.ReviewResolved, mpUID)
	})
}

// ResolveCreate mints a new person from a deferred candidate and resolves the
// entry against it.
func (s *Service) ResolveCreate(ref string) (int64, error) {
	entry, err := s.store.Review.Get(ref)
	if err != nil {
		return 0, err
	}
	if entry.Status != domain.ReviewPending {
		return 0, fmt.Errorf("review entry %s is already %s", entry.ID, entry.Status)
	}
	c, err := Candidate(entry)
	if err != nil {
		return 0, err
	}

	engine := merge.New(s.store, runUUID(entry))
	outcome := domain.Outcome{Kind: domain.OutcomeCreated}
	applied, err := engine.Apply(&outcome, c)
	if err != nil {
		return 0, err
	}

	err = s.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		if err := s.store.Review.Resolve(tx, entry.UUID, applied.MPUID); err != nil {
			return err
		}
		return ew.LogReviewResolved(tx, entry.UUID, domain.ReviewResolved, applied.MPUID)
	})
	if err != nil {
		return 0, err
	}
	return applied.MPUID, nil
}

// Discard marks a pending entry discarded without touching the store.
func (s *Service) Discard(ref string) error {
	entry, err := s.store.Review.Get(ref)
	if err != nil {
		return err
	}
	return s.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		if err := s.store.Review.Discard(tx, entry.UUID); err != nil {
			return err
		}
		return ew.LogReviewResolved(tx, entry.UUID, domain.ReviewDiscarded, 0)
	})
}

func (s *Service) insertMentionFact(m *domain.RawMention, mpUID int64) error {
	return s.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		switch m.Kind {
		case domain.MentionVote:
			if err := domain.ValidateVoto(m.Voto); err != nil {
				return err
			}
			if m.BillID == "" {
				return fmt.Errorf("vote mention has no bill id")
			}
			_, err := s.store.Facts.InsertVote(tx, mpUID, m.BillID, m.Voto, m.Fecha)
			return err
		case domain.MentionAuthorship:
			if m.BillID == "" {
				return fmt.Errorf("authorship mention has no bill id")
			}
			_, err := s.store.Facts.InsertAuthor(tx, m.BillID, mpUID)
			return err
		case domain.MentionSpeech:
			_, err := s.store.Facts.InsertSpeechTurn(tx, mpUID, m.SessionID, m.Orden, m.Text, m.Fecha)
			return err
		case domain.MentionInteraction:
			return s.store.Facts.InsertInteraction(tx, mpUID, nil, string(m.Kind), m.SessionID, m.Fecha)
		}
		return fmt.Errorf("unknown mention kind: %s", m.Kind)
	})
}

// ConflictDiff renders a unified diff between a deferred candidate's
// attributes and a stored person's, for side-by-side inspection in show.
func ConflictDiff(c *domain.CandidateIdentity, p *domain.Person) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(personLines(p)),
		B:        difflib.SplitLines(candidateLines(c)),
		FromFile: p.ID,
		ToFile:   fmt.Sprintf("candidate (%s)", c.Source),
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func candidateLines(c *domain.CandidateIdentity) string {
	var b strings.Builder
	write := func(field, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, value)
		}
	}
	write("nombre", c.DisplayName())
	write("nombre_propio", c.NombrePropio)
	write("apellido_paterno", c.ApellidoPaterno)
	write("apellido_materno", c.ApellidoMaterno)
	write("genero", c.Bio.Genero)
	write("fecha_nacimiento", c.Bio.FechaNacimiento)
	write("lugar_nacimiento", c.Bio.LugarNacimiento)
	write("profesion", c.Bio.Profesion)
	return b.String()
}

func personLines(p *domain.Person) string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	var b strings.Builder
	write := func(field, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, value)
		}
	}
	write("nombre", p.NombreCompleto)
	write("nombre_propio", deref(p.NombrePropio))
	write("apellido_paterno", deref(p.ApellidoPaterno))
	write("apellido_materno", deref(p.ApellidoMaterno))
	write("genero", deref(p.Genero))
	write("fecha_nacimiento", deref(p.FechaNacimiento))
	write("lugar_nacimiento", deref(p.LugarNacimiento))
	write("profesion", deref(p.Profesion))
	return b.String()
}

func runUUID(entry *domain.ReviewEntry) string {
	if entry.RunUUID != nil {
		return *entry.RunUUID
	}
	return ""
}
