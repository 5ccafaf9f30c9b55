package domain

import (
	"fmt"
	"regexp"
	"time"
)

// UUIDv4Regex validates lowercase UUIDv4 format
var UUIDv4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ValidateUUID validates a UUID v4 format (lowercase with hyphens)
func ValidateUUID(uuid string) error {
	if !UUIDv4Regex.MatchString(uuid) {
		return fmt.Errorf("invalid UUID: must be lowercase UUIDv4 format (e.g., 550e8400-e29b-41d4-a716-446655440000)")
	}
	return nil
}

// ValidateSourceSystem validates a source system tag
func ValidateSourceSystem(s SourceSystem) error {
	switch s {
	case SourceCamara, SourceSenado, SourceBCN, SourceFreeText:
		return nil
	default:
		return fmt.Errorf("invalid source system: must be one of: camara, senado, bcn, freetext")
	}
}

// ValidateIdentifierSource validates a source system that may own external
// identifiers. Free text never carries identifiers.
func ValidateIdentifierSource(s SourceSystem) error {
	switch s {
	case SourceCamara, SourceSenado, SourceBCN:
		return nil
	default:
		return fmt.Errorf("invalid identifier source: must be one of: camara, senado, bcn")
	}
}

// ValidateVoto validates an individual vote choice
func ValidateVoto(voto string) error {
	switch voto {
	case "Afirmativo", "En Contra", "Abstención", "Pareo", "Dispensado":
		return nil
	default:
		return fmt.Errorf("invalid voto: must be one of: Afirmativo, En Contra, Abstención, Pareo, Dispensado")
	}
}

// ValidateMentionKind validates a dependent-fact mention kind
func ValidateMentionKind(kind MentionKind) error {
	switch kind {
	case MentionVote, MentionAuthorship, MentionSpeech, MentionInteraction:
		return nil
	default:
		return fmt.Errorf("invalid mention kind: must be one of: vote, authorship, speech, interaction")
	}
}

// ValidateReviewStatus validates a review queue entry status
func ValidateReviewStatus(status ReviewStatus) error {
	switch status {
	case ReviewPending, ReviewResolved, ReviewDiscarded:
		return nil
	default:
		return fmt.Errorf("invalid review status: must be one of: pending, resolved, discarded")
	}
}

// ValidateCandidate checks that a candidate is usable at all: it needs a
// name or a source identifier before it may enter resolution.
func ValidateCandidate(c *CandidateIdentity) error {
	if err := ValidateSourceSystem(c.Source); err != nil {
		return err
	}
	if c.SourceID == "" && c.DisplayName() == "" {
		return &MalformedCandidateError{Source: c.Source}
	}
	if c.SourceID != "" {
		if err := ValidateIdentifierSource(c.Source); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTimestamp validates and parses an ISO8601 timestamp
func ValidateTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: expected ISO8601/RFC3339")
	}
	return t, nil
}
