// Package store provides the persistence layer over the canonical identity
// store. All mutation goes through transactions obtained here; the resolver
// and linker only ever see read-only snapshots.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mhenriquez/parlid/internal/db"
	"github.com/mhenriquez/parlid/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db *db.DB

	Persons     *PersonStore
	Identifiers *IdentifierStore
	Aliases     *AliasStore
	Facts       *FactStore
	Review      *ReviewStore
	Runs        *RunStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Persons = &PersonStore{store: s}
	s.Identifiers = &IdentifierStore{store: s}
	s.Aliases = &AliasStore{store: s}
	s.Facts = &FactStore{store: s}
	s.Review = &ReviewStore{store: s}
	s.Runs = &RunStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// WithTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back. The merge engine runs one
// candidate (or one full-refresh batch) per call, so an abort between
// candidates leaves already-committed work valid.
func (s *Store) WithTx(fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

// dbtx is satisfied by both *sql.Tx and *sql.DB so read helpers can run
// inside or outside a transaction.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// parseTime parses the ISO8601 timestamps SQLite defaults write.
func parseTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
