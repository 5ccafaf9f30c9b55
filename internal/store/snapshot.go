package store

import (
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/resolve"
)

// LoadSnapshot reads the canonical identity store into a resolver snapshot.
// Runs take one snapshot up front and extend it in memory as merges commit.
func (s *Store) LoadSnapshot() (*resolve.Snapshot, error) {
	snap := resolve.NewSnapshot()

	rows, err := s.db.Query(`
		SELECT mp_uid, nombre_completo,
		       COALESCE(nombre_propio, ''), COALESCE(apellido_paterno, ''), COALESCE(apellido_materno, '')
		FROM dim_parlamentario
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load persons into snapshot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mpUID int64
		var completo, propio, paterno, materno string
		if err := rows.Scan(&mpUID, &completo, &propio, &paterno, &materno); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		snap.AddPerson(mpUID, completo, propio, paterno, materno)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idRows, err := s.db.Query("SELECT source_system, source_id, mp_uid FROM parlamentario_ids")
	if err != nil {
		return nil, fmt.Errorf("failed to load identifiers into snapshot: %w", err)
	}
	defer idRows.Close()
	for idRows.Next() {
		var source, sourceID string
		var mpUID int64
		if err := idRows.Scan(&source, &sourceID, &mpUID); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		snap.AddIdentifier(domain.SourceSystem(source), sourceID, mpUID)
	}
	if err := idRows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := s.db.Query("SELECT alias_norm, mp_uid FROM parlamentario_aliases")
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases into snapshot: %w", err)
	}
	defer aliasRows.Close()
	for aliasRows.Next() {
		var norm string
		var mpUID int64
		if err := aliasRows.Scan(&norm, &mpUID); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		snap.AddAlias(norm, mpUID)
	}
	return snap, aliasRows.Err()
}
