// Package events writes the append-only provenance log. Every merge decision,
// conflict, and rejection lands here so no candidate or mention is silently
// dropped.
package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mhenriquez/parlid/internal/domain"
)

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log
func (w *Writer) LogEvent(tx *sql.Tx, event *domain.Event) error {
	query := `
		INSERT INTO event_log (run_uuid, resource_type, resource_uid, event_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.Exec(query, event.RunUUID, event.ResourceType, event.ResourceUID, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogPersonCreated logs the minting of a new canonical person.
func (w *Writer) LogPersonCreated(tx *sql.Tx, runUUID string, mpUID int64, c *domain.CandidateIdentity) error {
	return w.logJSON(tx, runUUID, "person", personUID(mpUID), "person.created", map[string]interface{}{
		"source_system": c.Source,
		"source_id":     c.SourceID,
		"display_name":  c.DisplayName(),
	})
}

// LogPersonMerged logs an attribute/identifier merge into an existing person.
func (w *Writer) LogPersonMerged(tx *sql.Tx, runUUID string, mpUID int64, changes map[string]interface{}) error {
	return w.logJSON(tx, runUUID, "person", personUID(mpUID), "person.merged", changes)
}

// LogIdentifierAdded logs a new external identifier binding.
func (w *Writer) LogIdentifierAdded(tx *sql.Tx, runUUID string, mpUID int64, source domain.SourceSystem, sourceID string) error {
	return w.logJSON(tx, runUUID, "person", personUID(mpUID), "identifier.added", map[string]interface{}{
		"source_system": source,
		"source_id":     sourceID,
	})
}

// LogAttributeConflict logs a rejected attribute update. The original value
// is kept; the disagreement stays visible here.
func (w *Writer) LogAttributeConflict(tx *sql.Tx, runUUID string, conflict *domain.ConflictingAttributeError) error {
	return w.logJSON(tx, runUUID, "person", personUID(conflict.MPUID), "person.attribute_conflict", map[string]interface{}{
		"field":         conflict.Field,
		"current":       conflict.Current,
		"incoming":      conflict.Incoming,
		"source_system": conflict.Source,
	})
}

// LogAliasConflict logs an alias write rejected because the text is bound to
// a different person.
func (w *Writer) LogAliasConflict(tx *sql.Tx, runUUID string, conflict *domain.DuplicateAliasError) error {
	return w.logJSON(tx, runUUID, "person", personUID(conflict.Proposed), "alias.conflict", map[string]interface{}{
		"alias":    conflict.Alias,
		"bound_to": conflict.BoundTo,
	})
}

// LogCandidateDeferred logs a candidate parked in the review queue.
func (w *Writer) LogCandidateDeferred(tx *sql.Tx, runUUID string, reviewUUID string, outcome *domain.Outcome, c *domain.CandidateIdentity) error {
	return w.logJSON(tx, runUUID, "review", reviewUUID, "candidate.deferred", map[string]interface{}{
		"reason":        outcome.Reason,
		"candidates":    outcome.Candidates,
		"score":         outcome.Score,
		"runner_up":     outcome.RunnerUp,
		"source_system": c.Source,
		"display_name":  c.DisplayName(),
	})
}

// LogCandidateMalformed logs a skipped unusable candidate.
func (w *Writer) LogCandidateMalformed(tx *sql.Tx, runUUID string, c *domain.CandidateIdentity) error {
	return w.logJSON(tx, runUUID, "candidate", "", "candidate.malformed", map[string]interface{}{
		"source_system": c.Source,
		"source_id":     c.SourceID,
	})
}

// LogMentionUnresolved logs a dependent-fact mention that could not be linked.
func (w *Writer) LogMentionUnresolved(tx *sql.Tx, runUUID string, m *domain.RawMention, cause *domain.UnresolvedReferenceError) error {
	return w.logJSON(tx, runUUID, "mention", "", "mention.unresolved", map[string]interface{}{
		"kind":      m.Kind,
		"source_id": m.SourceID,
		"bill_id":   cause.BillID,
		"cause":     cause.Error(),
	})
}

// LogSubRelationReplaced logs a source-scoped full refresh of a sub-relation.
func (w *Writer) LogSubRelationReplaced(tx *sql.Tx, runUUID string, relation string, source domain.SourceSystem, retracted, inserted int) error {
	return w.logJSON(tx, runUUID, "relation", relation, "relation.replaced", map[string]interface{}{
		"source_system": source,
		"retracted":     retracted,
		"inserted":      inserted,
	})
}

// LogMembershipSkipped logs a committee seat dropped because its deputy id is
// not bound to any canonical person.
func (w *Writer) LogMembershipSkipped(tx *sql.Tx, runUUID string, comisionID int64, sourceID string) error {
	return w.logJSON(tx, runUUID, "relation", "comision_membresias", "membership.skipped", map[string]interface{}{
		"comision_id": comisionID,
		"source_id":   sourceID,
	})
}

// LogReviewResolved logs the out-of-band resolution of a review queue entry.
func (w *Writer) LogReviewResolved(tx *sql.Tx, reviewUUID string, status domain.ReviewStatus, mpUID int64) error {
	payload := map[string]interface{}{"status": status}
	if mpUID > 0 {
		payload["mp_uid"] = mpUID
	}
	return w.logJSON(tx, "", "review", reviewUUID, "review.resolved", payload)
}

func (w *Writer) logJSON(tx *sql.Tx, runUUID, resourceType, resourceUID, eventType string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	payloadStr := string(data)
	event := &domain.Event{
		ResourceType: resourceType,
		EventType:    eventType,
		Payload:      &payloadStr,
	}
	if runUUID != "" {
		event.RunUUID = &runUUID
	}
	if resourceUID != "" {
		event.ResourceUID = &resourceUID
	}

	return w.LogEvent(tx, event)
}

func personUID(mpUID int64) string {
	return strconv.FormatInt(mpUID, 10)
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}
