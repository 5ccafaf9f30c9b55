package id

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	personIDPattern = regexp.MustCompile(`^MP-\d{5}$`)
	reviewIDPattern = regexp.MustCompile(`^RQ-\d{5}$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Type represents the type of resource
type Type string

const (
	TypePerson Type = "person"
	TypeReview Type = "review"
)

// FormatPerson formats a person friendly ID
func FormatPerson(seq int64) string {
	return fmt.Sprintf("MP-%05d", seq)
}

// FormatReview formats a review queue entry friendly ID
func FormatReview(seq int64) string {
	return fmt.Sprintf("RQ-%05d", seq)
}

// Parse parses a friendly ID string and returns the type and sequence number
func Parse(id string) (Type, int64, error) {
	id = strings.TrimSpace(id)

	switch {
	case personIDPattern.MatchString(id):
		seq, _ := strconv.ParseInt(id[3:], 10, 64)
		return TypePerson, seq, nil
	case reviewIDPattern.MatchString(id):
		seq, _ := strconv.ParseInt(id[3:], 10, 64)
		return TypeReview, seq, nil
	default:
		return "", 0, fmt.Errorf("invalid friendly ID format: %s", id)
	}
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	return uuidPattern.MatchString(strings.ToLower(s))
}

// IsFriendlyID checks if a string is a valid friendly ID
func IsFriendlyID(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}
