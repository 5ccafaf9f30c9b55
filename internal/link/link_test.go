package link

import (
	"errors"
	"testing"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/resolve"
)

func linkerSnapshot() *resolve.Snapshot {
	snap := resolve.NewSnapshot()
	snap.AddPerson(1, "Juan Pérez Soto", "Juan", "Pérez", "Soto")
	snap.AddIdentifier(domain.SourceCamara, "101", 1)
	snap.AddAlias("Juan Pérez", 1)
	snap.AddPerson(2, "María Muñoz Rojas", "María", "Muñoz", "Rojas")
	snap.AddIdentifier(domain.SourceCamara, "102", 2)
	return snap
}

func TestExtractBulletin(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Proyecto de ley, boletín 15665-07, primer trámite", "15665-07", true},
		{"Boletines 123-04 y 456-05", "123-04", true},
		{"sin boletín", "", false},
		{"numero suelto 15665", "", false},
		{"mal formado 15665-7", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractBulletin(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractBulletin(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve_StructuredVote(t *testing.T) {
	l := New(linkerSnapshot(), []string{"15665-07"})

	ref, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionVote,
		Source:   domain.SourceCamara,
		SourceID: "101",
		BillID:   "15665-07",
		Voto:     "Afirmativo",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.MPUID != 1 || ref.BillID != "15665-07" {
		t.Errorf("unexpected reference: %+v", ref)
	}
}

func TestResolve_FreeTextSpeech(t *testing.T) {
	l := New(linkerSnapshot(), nil)

	// Speech turns need a person but not a bill.
	ref, err := l.Resolve(&domain.RawMention{
		Kind:   domain.MentionSpeech,
		Source: domain.SourceFreeText,
		Text:   "Juan Pérez",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.MPUID != 1 {
		t.Errorf("expected alias match to mp_uid 1, got %+v", ref)
	}
}

func TestResolve_BulletinExtractedFromText(t *testing.T) {
	l := New(linkerSnapshot(), []string{"15665-07"})

	ref, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionVote,
		Source:   domain.SourceCamara,
		SourceID: "101",
		Text:     "Votación proyecto boletín 15665-07",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.BillID != "15665-07" {
		t.Errorf("expected extracted bulletin, got %+v", ref)
	}
}

func TestResolve_UnknownIdentifierUnresolved(t *testing.T) {
	l := New(linkerSnapshot(), []string{"15665-07"})

	_, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionVote,
		Source:   domain.SourceCamara,
		SourceID: "999",
		BillID:   "15665-07",
	})
	var unresolved *domain.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
}

func TestResolve_AmbiguousFreeTextUnresolved(t *testing.T) {
	snap := linkerSnapshot()
	snap.AddPerson(3, "Pedro Pérez Lagos", "Pedro", "Pérez", "Lagos")
	l := New(snap, nil)

	// Two Pérez persons: surname-only text never links. The linker does not
	// guess; approximate matching is for candidate resolution only.
	_, err := l.Resolve(&domain.RawMention{
		Kind:   domain.MentionSpeech,
		Source: domain.SourceFreeText,
		Text:   "Pérez",
	})
	var unresolved *domain.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
}

func TestResolve_UnknownBillUnresolved(t *testing.T) {
	l := New(linkerSnapshot(), []string{"15665-07"})

	_, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionAuthorship,
		Source:   domain.SourceCamara,
		SourceID: "101",
		BillID:   "99999-99",
	})
	var unresolved *domain.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
	if unresolved.BillID != "99999-99" {
		t.Errorf("error should carry the bill id, got %+v", unresolved)
	}
}

func TestResolve_VoteWithoutBillUnresolved(t *testing.T) {
	l := New(linkerSnapshot(), nil)

	_, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionVote,
		Source:   domain.SourceCamara,
		SourceID: "101",
		Text:     "votación sin boletín",
	})
	var unresolved *domain.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
}

func TestAddBill(t *testing.T) {
	l := New(linkerSnapshot(), nil)
	if l.BillKnown("15665-07") {
		t.Fatal("bill should be unknown before AddBill")
	}
	l.AddBill("15665-07")
	if !l.BillKnown("15665-07") {
		t.Fatal("bill should be known after AddBill")
	}

	ref, err := l.Resolve(&domain.RawMention{
		Kind:     domain.MentionVote,
		Source:   domain.SourceCamara,
		SourceID: "102",
		BillID:   "15665-07",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.MPUID != 2 {
		t.Errorf("expected mp_uid 2, got %+v", ref)
	}
}
