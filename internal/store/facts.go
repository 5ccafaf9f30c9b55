package store

import (
	"database/sql"
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
)

// FactStore handles dependent facts: parties, committees, mandates,
// militancy, memberships, bills, votes, speech turns and interactions.
type FactStore struct {
	store *Store
}

// PartyParams carries the upsertable attributes of a party.
type PartyParams struct {
	NombrePartido       string
	NombreAlternativo   string
	Sigla               string
	FechaFundacion      string
	SitioWeb            string
	URLHistoriaPolitica string
	URLLogo             string
	UltimaActualizacion string
}

// UpsertPartido inserts or updates a party keyed by its name and returns its id.
// Incoming empty attributes never clobber stored non-empty ones.
func (fs *FactStore) UpsertPartido(tx *sql.Tx, p PartyParams) (int64, error) {
	if p.NombrePartido == "" {
		return 0, fmt.Errorf("party name is required")
	}

	_, err := tx.Exec(`
		INSERT INTO dim_partidos (nombre_partido, nombre_alternativo, sigla, fecha_fundacion,
			sitio_web, url_historia_politica, url_logo, ultima_actualizacion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(nombre_partido) DO UPDATE SET
			nombre_alternativo = COALESCE(NULLIF(excluded.nombre_alternativo, ''), nombre_alternativo),
			sigla = COALESCE(NULLIF(excluded.sigla, ''), sigla),
			fecha_fundacion = COALESCE(NULLIF(excluded.fecha_fundacion, ''), fecha_fundacion),
			sitio_web = COALESCE(NULLIF(excluded.sitio_web, ''), sitio_web),
			url_historia_politica = COALESCE(NULLIF(excluded.url_historia_politica, ''), url_historia_politica),
			url_logo = COALESCE(NULLIF(excluded.url_logo, ''), url_logo),
			ultima_actualizacion = COALESCE(NULLIF(excluded.ultima_actualizacion, ''), ultima_actualizacion)
	`, p.NombrePartido, nullable(p.NombreAlternativo), nullable(p.Sigla), nullable(p.FechaFundacion),
		nullable(p.SitioWeb), nullable(p.URLHistoriaPolitica), nullable(p.URLLogo), nullable(p.UltimaActualizacion))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert party: %w", err)
	}

	var id int64
	if err := tx.QueryRow("SELECT partido_id FROM dim_partidos WHERE nombre_partido = ?", p.NombrePartido).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back party id: %w", err)
	}
	return id, nil
}

// PartidoIDByName resolves a party name outside a transaction.
func (fs *FactStore) PartidoIDByName(nombre string) (int64, bool, error) {
	var id int64
	err := fs.store.db.QueryRow("SELECT partido_id FROM dim_partidos WHERE nombre_partido = ?", nombre).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up party: %w", err)
	}
	return id, true, nil
}

// UpsertComision inserts or updates a committee under its source-assigned id.
func (fs *FactStore) UpsertComision(tx *sql.Tx, comisionID int64, nombre, tipo string) error {
	if tipo == "" {
		tipo = "Permanente"
	}
	_, err := tx.Exec(`
		INSERT INTO dim_comisiones (comision_id, nombre_comision, tipo) VALUES (?, ?, ?)
		ON CONFLICT(comision_id) DO UPDATE SET nombre_comision = excluded.nombre_comision, tipo = excluded.tipo
	`, comisionID, nombre, tipo)
	if err != nil {
		return fmt.Errorf("failed to upsert committee %d: %w", comisionID, err)
	}
	return nil
}

// ReplaceMemberships retracts a source's committee membership rows and writes
// the new set, inside one transaction. Other sources' rows are untouched.
// Returns the number of retracted rows.
func (fs *FactStore) ReplaceMemberships(tx *sql.Tx, source domain.SourceSystem, rows []domain.Membership) (int, error) {
	retracted, err := retract(tx, "DELETE FROM comision_membresias WHERE source_system = ?", source)
	if err != nil {
		return 0, fmt.Errorf("failed to retract memberships for %s: %w", source, err)
	}
	for _, m := range rows {
		rol := m.Rol
		if rol == "" {
			rol = "Miembro"
		}
		_, err := tx.Exec(`
			INSERT INTO comision_membresias (mp_uid, comision_id, rol, fecha_inicio, fecha_fin, source_system)
			VALUES (?, ?, ?, ?, ?, ?)
		`, m.MPUID, m.ComisionID, rol, nullable(m.FechaInicio), nullable(m.FechaFin), m.Source)
		if err != nil {
			return 0, fmt.Errorf("failed to insert membership (mp_uid=%d, comision=%d): %w", m.MPUID, m.ComisionID, err)
		}
	}
	return retracted, nil
}

// ReplaceMandatos replaces one person's mandate rows from one source.
// Returns the number of retracted rows.
func (fs *FactStore) ReplaceMandatos(tx *sql.Tx, mpUID int64, source domain.SourceSystem, rows []domain.Mandate) (int, error) {
	retracted, err := retract(tx, "DELETE FROM parlamentario_mandatos WHERE mp_uid = ? AND source_system = ?", mpUID, source)
	if err != nil {
		return 0, fmt.Errorf("failed to retract mandates for mp_uid=%d: %w", mpUID, err)
	}
	for _, m := range rows {
		_, err := tx.Exec(`
			INSERT INTO parlamentario_mandatos (mp_uid, cargo, distrito, partido_id_mandato, fecha_inicio, fecha_fin, source_system)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, mpUID, m.Cargo, nullable(m.Distrito), m.PartidoID, nullable(m.FechaInicio), nullable(m.FechaFin), source)
		if err != nil {
			return 0, fmt.Errorf("failed to insert mandate for mp_uid=%d: %w", mpUID, err)
		}
	}
	return retracted, nil
}

// MilitanciaRow is one party-affiliation period.
type MilitanciaRow struct {
	PartidoID   int64
	FechaInicio string
	FechaFin    string
}

// ReplaceMilitancia replaces one person's party-affiliation history from one
// source. Returns the number of retracted rows.
func (fs *FactStore) ReplaceMilitancia(tx *sql.Tx, mpUID int64, source domain.SourceSystem, rows []MilitanciaRow) (int, error) {
	retracted, err := retract(tx, "DELETE FROM militancia_historial WHERE mp_uid = ? AND source_system = ?", mpUID, source)
	if err != nil {
		return 0, fmt.Errorf("failed to retract militancy for mp_uid=%d: %w", mpUID, err)
	}
	for _, m := range rows {
		_, err := tx.Exec(`
			INSERT INTO militancia_historial (mp_uid, partido_id, fecha_inicio, fecha_fin, source_system)
			VALUES (?, ?, ?, ?, ?)
		`, mpUID, m.PartidoID, nullable(m.FechaInicio), nullable(m.FechaFin), source)
		if err != nil {
			return 0, fmt.Errorf("failed to insert militancy for mp_uid=%d: %w", mpUID, err)
		}
	}
	return retracted, nil
}

// retract runs a scoped DELETE and returns the affected row count.
func retract(tx *sql.Tx, query string, args ...interface{}) (int, error) {
	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// UpsertBill records a bill, keeping existing attributes when the incoming
// ones are empty.
func (fs *FactStore) UpsertBill(tx *sql.Tx, billID, titulo, fechaIngreso string) error {
	_, err := tx.Exec(`
		INSERT INTO bills (bill_id, titulo, fecha_ingreso) VALUES (?, ?, ?)
		ON CONFLICT(bill_id) DO UPDATE SET
			titulo = COALESCE(NULLIF(excluded.titulo, ''), titulo),
			fecha_ingreso = COALESCE(NULLIF(excluded.fecha_ingreso, ''), fecha_ingreso)
	`, billID, nullable(titulo), nullable(fechaIngreso))
	if err != nil {
		return fmt.Errorf("failed to upsert bill %s: %w", billID, err)
	}
	return nil
}

// BillExists reports whether a bill id is known.
func (fs *FactStore) BillExists(qx dbtx, billID string) (bool, error) {
	if qx == nil {
		qx = fs.store.db.DB
	}
	var one int
	err := qx.QueryRow("SELECT 1 FROM bills WHERE bill_id = ?", billID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check bill %s: %w", billID, err)
	}
	return true, nil
}

// ListBillIDs returns all known bill ids.
func (fs *FactStore) ListBillIDs() ([]string, error) {
	rows, err := fs.store.db.Query("SELECT bill_id FROM bills ORDER BY bill_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertVote records one ballot. Re-ingesting the same (person, bill, date)
// is a no-op, which keeps vote ingestion idempotent.
func (fs *FactStore) InsertVote(tx *sql.Tx, mpUID int64, billID, voto, fecha string) (bool, error) {
	res, err := tx.Exec(`
		INSERT OR IGNORE INTO votos_parlamentario (mp_uid, bill_id, voto, fecha) VALUES (?, ?, ?, ?)
	`, mpUID, billID, voto, fecha)
	if err != nil {
		return false, fmt.Errorf("failed to insert vote (mp_uid=%d, bill=%s): %w", mpUID, billID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertAuthor records a bill authorship.
func (fs *FactStore) InsertAuthor(tx *sql.Tx, billID string, mpUID int64) (bool, error) {
	res, err := tx.Exec("INSERT OR IGNORE INTO bill_authors (bill_id, mp_uid) VALUES (?, ?)", billID, mpUID)
	if err != nil {
		return false, fmt.Errorf("failed to insert authorship (bill=%s, mp_uid=%d): %w", billID, mpUID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertSpeechTurn records one speech turn within a session.
func (fs *FactStore) InsertSpeechTurn(tx *sql.Tx, mpUID int64, sessionID string, orden int, texto, fecha string) (bool, error) {
	res, err := tx.Exec(`
		INSERT OR IGNORE INTO speech_turns (mp_uid, session_id, orden, texto, fecha) VALUES (?, ?, ?, ?, ?)
	`, mpUID, sessionID, orden, texto, nullable(fecha))
	if err != nil {
		return false, fmt.Errorf("failed to insert speech turn (session=%s, orden=%d): %w", sessionID, orden, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertInteraction records an interaction between legislators.
func (fs *FactStore) InsertInteraction(tx *sql.Tx, mpUID int64, targetMPUID *int64, kind, sessionID, fecha string) error {
	_, err := tx.Exec(`
		INSERT INTO interactions (mp_uid, target_mp_uid, kind, session_id, fecha) VALUES (?, ?, ?, ?, ?)
	`, mpUID, targetMPUID, kind, nullable(sessionID), nullable(fecha))
	if err != nil {
		return fmt.Errorf("failed to insert interaction (mp_uid=%d): %w", mpUID, err)
	}
	return nil
}

// CountVotesByPerson returns the vote count for a person, for status output.
func (fs *FactStore) CountVotesByPerson(mpUID int64) (int, error) {
	var n int
	err := fs.store.db.QueryRow("SELECT COUNT(*) FROM votos_parlamentario WHERE mp_uid = ?", mpUID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// OrphanFactCounts reports dependent-fact rows whose mp_uid no longer exists.
// Always zero unless foreign keys were off; used by the admin integrity check.
func (fs *FactStore) OrphanFactCounts() (map[string]int, error) {
	tables := []string{
		"parlamentario_mandatos", "militancia_historial", "comision_membresias",
		"votos_parlamentario", "speech_turns", "interactions", "bill_authors",
	}
	counts := map[string]int{}
	for _, table := range tables {
		query := fmt.Sprintf(`
			SELECT COUNT(*) FROM %s t
			WHERE NOT EXISTS (SELECT 1 FROM dim_parlamentario p WHERE p.mp_uid = t.mp_uid)
		`, table)
		var n int
		if err := fs.store.db.QueryRow(query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to check orphans in %s: %w", table, err)
		}
		if n > 0 {
			counts[table] = n
		}
	}
	return counts, nil
}
