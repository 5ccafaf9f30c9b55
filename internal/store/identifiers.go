package store

import (
	"database/sql"
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/normalize"
)

// IdentifierStore handles (source_system, source_id) bindings.
type IdentifierStore struct {
	store *Store
}

// Bound returns the person a (source, source_id) pair is bound to, if any.
func (is *IdentifierStore) Bound(qx dbtx, source domain.SourceSystem, sourceID string) (int64, bool, error) {
	if qx == nil {
		qx = is.store.db.DB
	}
	var mpUID int64
	err := qx.QueryRow(
		"SELECT mp_uid FROM parlamentario_ids WHERE source_system = ? AND source_id = ?",
		source, sourceID,
	).Scan(&mpUID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up identifier: %w", err)
	}
	return mpUID, true, nil
}

// Add binds (source, source_id) to a person inside tx. Returns false if the
// binding already existed. Binding an identifier that is held by a different
// person is a store-level integrity failure and aborts the transaction.
func (is *IdentifierStore) Add(tx *sql.Tx, source domain.SourceSystem, sourceID string, uri string, mpUID int64) (bool, error) {
	existing, ok, err := is.Bound(tx, source, sourceID)
	if err != nil {
		return false, err
	}
	if ok {
		if existing != mpUID {
			return false, fmt.Errorf("identifier (%s, %s) already bound to mp_uid=%d, refusing rebind to mp_uid=%d",
				source, sourceID, existing, mpUID)
		}
		return false, nil
	}

	_, err = tx.Exec(
		"INSERT INTO parlamentario_ids (source_system, source_id, mp_uid, uri) VALUES (?, ?, ?, ?)",
		source, sourceID, mpUID, nullable(uri),
	)
	if err != nil {
		return false, fmt.Errorf("failed to add identifier: %w", err)
	}
	return true, nil
}

// ListByPerson returns all identifiers bound to a person.
func (is *IdentifierStore) ListByPerson(mpUID int64) ([]domain.ExternalIdentifier, error) {
	rows, err := is.store.db.Query(`
		SELECT source_system, source_id, mp_uid, uri, created_at
		FROM parlamentario_ids WHERE mp_uid = ? ORDER BY source_system, source_id
	`, mpUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}
	defer rows.Close()

	var ids []domain.ExternalIdentifier
	for rows.Next() {
		var ident domain.ExternalIdentifier
		var createdAt string
		if err := rows.Scan(&ident.Source, &ident.SourceID, &ident.MPUID, &ident.URI, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		ident.CreatedAt = parseTime(createdAt)
		ids = append(ids, ident)
	}
	return ids, rows.Err()
}

// AliasStore handles free-text name variants bound to persons.
type AliasStore struct {
	store *Store
}

// Bound returns the person an alias text is bound to, if any. The lookup is
// over the normalized form, which is what the uniqueness invariant covers.
func (as *AliasStore) Bound(qx dbtx, alias string) (int64, bool, error) {
	if qx == nil {
		qx = as.store.db.DB
	}
	var mpUID int64
	err := qx.QueryRow(
		"SELECT mp_uid FROM parlamentario_aliases WHERE alias_norm = ?",
		normalize.Name(alias),
	).Scan(&mpUID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up alias: %w", err)
	}
	return mpUID, true, nil
}

// Add binds an alias to a person inside tx. Returns false without error when
// the alias is already bound to the same person, and *domain.DuplicateAliasError
// when it is bound to a different one. The caller decides whether that
// conflict aborts anything; by policy it does not abort the merge.
func (as *AliasStore) Add(tx *sql.Tx, mpUID int64, alias string, source domain.SourceSystem) (bool, error) {
	norm := normalize.Name(alias)
	if norm == "" {
		return false, nil
	}

	existing, ok, err := as.Bound(tx, alias)
	if err != nil {
		return false, err
	}
	if ok {
		if existing != mpUID {
			return false, &domain.DuplicateAliasError{Alias: alias, BoundTo: existing, Proposed: mpUID}
		}
		return false, nil
	}

	_, err = tx.Exec(
		"INSERT INTO parlamentario_aliases (mp_uid, alias, alias_norm, source_system) VALUES (?, ?, ?, ?)",
		mpUID, alias, norm, source,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add alias: %w", err)
	}
	return true, nil
}

// ListByPerson returns all aliases bound to a person.
func (as *AliasStore) ListByPerson(mpUID int64) ([]domain.AliasRecord, error) {
	rows, err := as.store.db.Query(`
		SELECT alias_id, mp_uid, alias, alias_norm, source_system, created_at
		FROM parlamentario_aliases WHERE mp_uid = ? ORDER BY alias_id
	`, mpUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []domain.AliasRecord
	for rows.Next() {
		var a domain.AliasRecord
		var createdAt string
		if err := rows.Scan(&a.AliasID, &a.MPUID, &a.Alias, &a.AliasNorm, &a.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// DuplicateNormAliases returns alias_norm values bound to more than one
// person. Always empty unless the unique constraint was bypassed; used by the
// admin integrity check.
func (as *AliasStore) DuplicateNormAliases() ([]string, error) {
	rows, err := as.store.db.Query(`
		SELECT alias_norm FROM parlamentario_aliases
		GROUP BY alias_norm HAVING COUNT(DISTINCT mp_uid) > 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to check alias uniqueness: %w", err)
	}
	defer rows.Close()

	var dupes []string
	for rows.Next() {
		var norm string
		if err := rows.Scan(&norm); err != nil {
			return nil, err
		}
		dupes = append(dupes, norm)
	}
	return dupes, rows.Err()
}
