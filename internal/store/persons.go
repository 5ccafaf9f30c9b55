package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/normalize"
)

// PersonStore handles canonical person persistence.
type PersonStore struct {
	store *Store
}

// CreatePersonParams contains the seed values for a new canonical person.
type CreatePersonParams struct {
	NombreCompleto  string
	NombrePropio    string
	ApellidoPaterno string
	ApellidoMaterno string
	Bio             domain.Bio
	FieldSources    string // JSON; empty for none
}

// personColumns is the scan order used by rowToPerson.
const personColumns = `mp_uid, uuid, id, nombre_completo, nombre_propio, apellido_paterno,
	apellido_materno, genero, fecha_nacimiento, lugar_nacimiento, profesion, url_foto,
	twitter_handle, sitio_web_personal, url_historia_politica, field_sources, created_at, updated_at`

// Create inserts a new canonical person inside tx and returns its minted
// mp_uid. The friendly ID is assigned by trigger and read back.
func (ps *PersonStore) Create(tx *sql.Tx, params CreatePersonParams) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO dim_parlamentario (
			uuid, nombre_completo, nombre_propio, apellido_paterno, apellido_materno,
			genero, fecha_nacimiento, lugar_nacimiento, profesion, url_foto,
			twitter_handle, sitio_web_personal, url_historia_politica, field_sources
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		params.NombreCompleto,
		nullable(params.NombrePropio),
		nullable(params.ApellidoPaterno),
		nullable(params.ApellidoMaterno),
		nullable(params.Bio.Genero),
		nullable(params.Bio.FechaNacimiento),
		nullable(params.Bio.LugarNacimiento),
		nullable(params.Bio.Profesion),
		nullable(params.Bio.URLFoto),
		nullable(params.Bio.TwitterHandle),
		nullable(params.Bio.SitioWebPersonal),
		nullable(params.Bio.URLHistoriaPolitica),
		nullable(params.FieldSources),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create person: %w", err)
	}

	mpUID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get minted mp_uid: %w", err)
	}
	return mpUID, nil
}

// Get returns a person by mp_uid, inside or outside a transaction.
func (ps *PersonStore) Get(qx dbtx, mpUID int64) (*domain.Person, error) {
	if qx == nil {
		qx = ps.store.db.DB
	}
	row := qx.QueryRow("SELECT "+personColumns+" FROM dim_parlamentario WHERE mp_uid = ?", mpUID)
	person, err := rowToPerson(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("person not found: mp_uid=%d", mpUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// GetByFriendlyID returns a person by its MP-00042 style ID.
func (ps *PersonStore) GetByFriendlyID(friendlyID string) (*domain.Person, error) {
	row := ps.store.db.QueryRow("SELECT "+personColumns+" FROM dim_parlamentario WHERE id = ?", friendlyID)
	person, err := rowToPerson(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("person not found: %s", friendlyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// UpdateFields updates the given columns on a person inside tx. Column names
// are supplied by the merge engine from its fixed attribute list, never from
// input data.
func (ps *PersonStore) UpdateFields(tx *sql.Tx, mpUID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	for column, value := range fields {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	args = append(args, mpUID)

	query := "UPDATE dim_parlamentario SET " + strings.Join(setClauses, ", ") + " WHERE mp_uid = ?"
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update person fields: %w", err)
	}
	return nil
}

// Find returns persons whose name or alias matches the query, normalized.
func (ps *PersonStore) Find(query string, limit int) ([]*domain.Person, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + normalize.Name(query) + "%"
	rows, err := ps.store.db.Query(`
		SELECT DISTINCT `+prefixColumns("p", personColumns)+`
		FROM dim_parlamentario p
		LEFT JOIN parlamentario_aliases a ON a.mp_uid = p.mp_uid
		WHERE lower(p.nombre_completo) LIKE ? OR a.alias_norm LIKE ?
		ORDER BY p.mp_uid
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search persons: %w", err)
	}
	defer rows.Close()

	var persons []*domain.Person
	for rows.Next() {
		person, err := rowToPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}
	return persons, rows.Err()
}

// Count returns the number of canonical persons.
func (ps *PersonStore) Count() (int, error) {
	var count int
	err := ps.store.db.QueryRow("SELECT COUNT(*) FROM dim_parlamentario").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func rowToPerson(row rowScanner) (*domain.Person, error) {
	var p domain.Person
	var createdAt, updatedAt string
	err := row.Scan(
		&p.MPUID, &p.UUID, &p.ID, &p.NombreCompleto, &p.NombrePropio, &p.ApellidoPaterno,
		&p.ApellidoMaterno, &p.Genero, &p.FechaNacimiento, &p.LugarNacimiento, &p.Profesion,
		&p.URLFoto, &p.TwitterHandle, &p.SitioWebPersonal, &p.URLHistoriaPolitica,
		&p.FieldSources, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = prefix + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
