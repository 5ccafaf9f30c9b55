package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mhenriquez/parlid/internal/domain"
)

// ReviewStore handles the manual follow-up queue for deferred candidates and
// unresolved mentions.
type ReviewStore struct {
	store *Store
}

// AddParams carries a new review queue entry.
type AddParams struct {
	Kind     string // "candidate" or "mention"
	Reason   string
	Source   domain.SourceSystem
	SourceID string
	RawName  string
	Payload  string // JSON of the full candidate or mention
	RunUUID  string
}

const reviewColumns = `rq_uid, uuid, id, kind, reason, source_system, source_id, raw_name,
	payload, run_uuid, status, resolved_mp_uid, created_at, updated_at`

// Add enqueues an entry inside tx and returns its uuid.
func (rs *ReviewStore) Add(tx *sql.Tx, params AddParams) (string, error) {
	entryUUID := uuid.NewString()
	_, err := tx.Exec(`
		INSERT INTO review_queue (uuid, kind, reason, source_system, source_id, raw_name, payload, run_uuid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entryUUID, params.Kind, params.Reason, params.Source,
		nullable(params.SourceID), nullable(params.RawName), nullable(params.Payload), nullable(params.RunUUID))
	if err != nil {
		return "", fmt.Errorf("failed to enqueue review entry: %w", err)
	}
	return entryUUID, nil
}

// Get fetches an entry by uuid or friendly ID.
func (rs *ReviewStore) Get(ref string) (*domain.ReviewEntry, error) {
	var row *sql.Row
	query := fmt.Sprintf("SELECT %s FROM review_queue WHERE ", reviewColumns)
	if isFriendlyReviewID(ref) {
		row = rs.store.db.QueryRow(query+"id = ?", ref)
	} else {
		row = rs.store.db.QueryRow(query+"uuid = ?", ref)
	}

	entry, err := rowToReviewEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review entry not found: %s", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review entry: %w", err)
	}
	return entry, nil
}

// ListPending returns pending entries, oldest first, optionally filtered by kind.
func (rs *ReviewStore) ListPending(kind string, limit int) ([]*domain.ReviewEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM review_queue WHERE status = 'pending'", reviewColumns)
	args := []interface{}{}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY rq_uid"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rs.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ReviewEntry
	for rows.Next() {
		entry, err := rowToReviewEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Resolve marks a pending entry resolved against a person, inside tx.
func (rs *ReviewStore) Resolve(tx *sql.Tx, entryUUID string, mpUID int64) error {
	res, err := tx.Exec(`
		UPDATE review_queue
		   SET status = 'resolved', resolved_mp_uid = ?,
		       updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
		 WHERE uuid = ? AND status = 'pending'
	`, mpUID, entryUUID)
	if err != nil {
		return fmt.Errorf("failed to resolve review entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review entry %s is not pending", entryUUID)
	}
	return nil
}

// Discard marks a pending entry discarded, inside tx.
func (rs *ReviewStore) Discard(tx *sql.Tx, entryUUID string) error {
	res, err := tx.Exec(`
		UPDATE review_queue
		   SET status = 'discarded',
		       updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
		 WHERE uuid = ? AND status = 'pending'
	`, entryUUID)
	if err != nil {
		return fmt.Errorf("failed to discard review entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review entry %s is not pending", entryUUID)
	}
	return nil
}

// PendingCount returns the number of pending entries.
func (rs *ReviewStore) PendingCount() (int, error) {
	var n int
	if err := rs.store.db.QueryRow("SELECT COUNT(*) FROM review_queue WHERE status = 'pending'").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count review queue: %w", err)
	}
	return n, nil
}

func rowToReviewEntry(row rowScanner) (*domain.ReviewEntry, error) {
	var entry domain.ReviewEntry
	var createdAt, updatedAt string
	err := row.Scan(
		&entry.RQUID, &entry.UUID, &entry.ID, &entry.Kind, &entry.Reason,
		&entry.Source, &entry.SourceID, &entry.RawName, &entry.Payload,
		&entry.RunUUID, &entry.Status, &entry.ResolvedMPUID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)
	return &entry, nil
}

func isFriendlyReviewID(ref string) bool {
	return len(ref) > 3 && ref[:3] == "RQ-"
}
