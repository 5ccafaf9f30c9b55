// Package link resolves mentions inside dependent facts (votes, authorships,
// speech turns, interactions) against the canonical identity store. The linker
// only looks identities up; it never creates persons.
package link

import (
	"regexp"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/resolve"
)

// bulletinPattern matches legislative bulletin numbers such as 15665-07
// embedded in vote descriptions.
var bulletinPattern = regexp.MustCompile(`\b(\d{1,6}-\d{2})\b`)

// ExtractBulletin returns the first bulletin number found in free text.
func ExtractBulletin(text string) (string, bool) {
	m := bulletinPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Linker resolves mentions against a snapshot and a set of known bills.
type Linker struct {
	snap  *resolve.Snapshot
	bills map[string]bool
}

// New creates a linker over the given snapshot and known bill ids.
func New(snap *resolve.Snapshot, billIDs []string) *Linker {
	bills := make(map[string]bool, len(billIDs))
	for _, id := range billIDs {
		bills[id] = true
	}
	return &Linker{snap: snap, bills: bills}
}

// AddBill registers a bill id discovered during the run.
func (l *Linker) AddBill(billID string) {
	l.bills[billID] = true
}

// BillKnown reports whether a bill id is known.
func (l *Linker) BillKnown(billID string) bool {
	return l.bills[billID]
}

// Resolve links one mention to its canonical person (and bill, when the
// mention carries or implies one). Structured mentions resolve by identifier
// only; free-text mentions resolve by exact normalized alias or name. Anything
// less certain is an UnresolvedReferenceError and the fact is skipped.
func (l *Linker) Resolve(m *domain.RawMention) (*domain.Reference, error) {
	mpUID, err := l.resolvePerson(m)
	if err != nil {
		return nil, err
	}

	billID := m.BillID
	if billID == "" && m.Text != "" {
		if extracted, ok := ExtractBulletin(m.Text); ok {
			billID = extracted
		}
	}
	if needsBill(m.Kind) {
		if billID == "" || !l.bills[billID] {
			return nil, &domain.UnresolvedReferenceError{
				Kind: m.Kind, SourceID: m.SourceID, Text: m.Text, BillID: billID,
			}
		}
	}

	return &domain.Reference{MPUID: mpUID, BillID: billID}, nil
}

func (l *Linker) resolvePerson(m *domain.RawMention) (int64, error) {
	if m.SourceID != "" {
		mpUID, ok := l.snap.LookupIdentifier(m.Source, m.SourceID)
		if !ok {
			return 0, &domain.UnresolvedReferenceError{Kind: m.Kind, SourceID: m.SourceID, BillID: m.BillID}
		}
		return mpUID, nil
	}

	matches := l.snap.NameMatches(m.Text)
	if len(matches) != 1 {
		return 0, &domain.UnresolvedReferenceError{Kind: m.Kind, Text: m.Text, BillID: m.BillID}
	}
	return matches[0], nil
}

// needsBill reports whether a mention kind requires a resolvable bill.
func needsBill(kind domain.MentionKind) bool {
	return kind == domain.MentionVote || kind == domain.MentionAuthorship
}
