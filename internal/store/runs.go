package store

import (
	"database/sql"
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
)

// RunStore records per-run accounting rows.
type RunStore struct {
	store *Store
}

// Start records the beginning of an ingest run.
func (rs *RunStore) Start(runUUID string, source domain.SourceSystem) error {
	_, err := rs.store.db.Exec(
		"INSERT INTO ingest_runs (run_uuid, source_system) VALUES (?, ?)",
		runUUID, source,
	)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// Finish stamps the run finished and writes the final counts.
func (rs *RunStore) Finish(runUUID string, s *domain.RunSummary) error {
	res, err := rs.store.db.Exec(`
		UPDATE ingest_runs
		   SET finished_at = strftime('%Y-%m-%dT%H:%M:%SZ','now'),
		       matched = ?, created = ?, deferred = ?, malformed = ?,
		       conflicts = ?, linked = ?, unresolved = ?
		 WHERE run_uuid = ?
	`, s.Matched, s.Created, s.Deferred, s.Malformed, s.Conflicts, s.Linked, s.Unresolved, runUUID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s was never started", runUUID)
	}
	return nil
}

// Get fetches one run by uuid.
func (rs *RunStore) Get(runUUID string) (*domain.RunSummary, error) {
	row := rs.store.db.QueryRow(`
		SELECT run_uuid, source_system, started_at, finished_at,
		       matched, created, deferred, malformed, conflicts, linked, unresolved
		FROM ingest_runs WHERE run_uuid = ?
	`, runUUID)
	summary, err := rowToRunSummary(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return summary, nil
}

// List returns the most recent runs, newest first.
func (rs *RunStore) List(limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := rs.store.db.Query(`
		SELECT run_uuid, source_system, started_at, finished_at,
		       matched, created, deferred, malformed, conflicts, linked, unresolved
		FROM ingest_runs ORDER BY started_at DESC, run_uuid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		summary, err := rowToRunSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, summary)
	}
	return runs, rows.Err()
}

func rowToRunSummary(row rowScanner) (*domain.RunSummary, error) {
	var s domain.RunSummary
	var startedAt string
	var finishedAt sql.NullString
	err := row.Scan(
		&s.RunUUID, &s.Source, &startedAt, &finishedAt,
		&s.Matched, &s.Created, &s.Deferred, &s.Malformed,
		&s.Conflicts, &s.Linked, &s.Unresolved,
	)
	if err != nil {
		return nil, err
	}
	s.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		s.FinishedAt = &t
	}
	return &s, nil
}
