package domain

import "fmt"

// MalformedCandidateError marks input with no usable name and no source id.
// The candidate is skipped and logged, never retried.
type MalformedCandidateError struct {
	Source SourceSystem
}

func (e *MalformedCandidateError) Error() string {
	return fmt.Sprintf("malformed candidate from %s: no usable name and no source id", e.Source)
}

// ConflictingAttributeError records a disagreement between a matched person's
// authoritative field and incoming data that is not a simple empty-value fill.
// The update is rejected; the original value is kept.
type ConflictingAttributeError struct {
	MPUID    int64
	Field    string
	Current  string
	Incoming string
	Source   SourceSystem
}

func (e *ConflictingAttributeError) Error() string {
	return fmt.Sprintf("conflicting attribute %s for mp_uid=%d: %q (kept) vs %q from %s",
		e.Field, e.MPUID, e.Current, e.Incoming, e.Source)
}

// DuplicateAliasError marks an alias write whose text is already bound to a
// different person. The alias write is rejected; the rest of the candidate's
// merge still proceeds.
type DuplicateAliasError struct {
	Alias    string
	BoundTo  int64
	Proposed int64
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q already bound to mp_uid=%d, cannot rebind to mp_uid=%d",
		e.Alias, e.BoundTo, e.Proposed)
}

// UnresolvedReferenceError marks a dependent-fact mention that could not be
// linked to a canonical person or bill. The fact is skipped, never inserted
// with a placeholder reference.
type UnresolvedReferenceError struct {
	Kind     MentionKind
	SourceID string
	Text     string
	BillID   string
}

func (e *UnresolvedReferenceError) Error() string {
	switch {
	case e.SourceID != "":
		return fmt.Sprintf("unresolved %s mention: no person for source id %q", e.Kind, e.SourceID)
	case e.BillID != "":
		return fmt.Sprintf("unresolved %s mention: no bill %q", e.Kind, e.BillID)
	default:
		return fmt.Sprintf("unresolved %s mention: %q", e.Kind, truncate(e.Text, 60))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
