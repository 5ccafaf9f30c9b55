// Package merge applies resolution outcomes to the canonical store. It is the
// only component that writes identity data: the resolver decides, the engine
// mutates, each candidate inside its own transaction.
package merge

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/store"
)

// Engine merges candidates into the canonical store.
type Engine struct {
	store   *store.Store
	runUUID string
}

// New creates a merge engine bound to one ingest run.
func New(s *store.Store, runUUID string) *Engine {
	return &Engine{store: s, runUUID: runUUID}
}

// Applied reports what one Apply call did, so the ingest runner can update
// its snapshot and run counts.
type Applied struct {
	Kind       domain.OutcomeKind
	MPUID      int64  // set for matched and created
	ReviewUUID string // set for deferred
	Conflicts  int    // rejected attribute writes and alias collisions
}

// mergeableColumns maps incoming candidate attributes to their columns. The
// merge engine only ever writes these columns; input data never names one.
var mergeableColumns = []string{
	"nombre_completo", "nombre_propio", "apellido_paterno", "apellido_materno",
	"genero", "fecha_nacimiento", "lugar_nacimiento", "profesion",
	"url_foto", "twitter_handle", "sitio_web_personal", "url_historia_politica",
}

// Apply merges one resolved candidate inside its own transaction. A returned
// error means the transaction rolled back and nothing for this candidate was
// written; prior candidates' commits are unaffected.
func (e *Engine) Apply(outcome *domain.Outcome, c *domain.CandidateIdentity) (*Applied, error) {
	applied := &Applied{Kind: outcome.Kind}

	err := e.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		switch outcome.Kind {
		case domain.OutcomeCreated:
			return e.applyCreate(tx, ew, c, applied)
		case domain.OutcomeMatched:
			return e.applyMatch(tx, ew, outcome.MPUID, c, applied)
		case domain.OutcomeDeferred:
			return e.applyDefer(tx, ew, outcome, c, applied)
		default:
			return fmt.Errorf("unknown outcome kind: %s", outcome.Kind)
		}
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func (e *Engine) applyCreate(tx *sql.Tx, ew *events.Writer, c *domain.CandidateIdentity, applied *Applied) error {
	incoming := attributeValues(c)

	sources := make(map[string]domain.SourceSystem, len(incoming))
	for field := range incoming {
		sources[field] = c.Source
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to encode field sources: %w", err)
	}

	mpUID, err := e.store.Persons.Create(tx, store.CreatePersonParams{
		NombreCompleto:  c.DisplayName(),
		NombrePropio:    c.NombrePropio,
		ApellidoPaterno: c.ApellidoPaterno,
		ApellidoMaterno: c.ApellidoMaterno,
		Bio:             c.Bio,
		FieldSources:    string(sourcesJSON),
	})
	if err != nil {
		return err
	}
	applied.MPUID = mpUID

	if err := ew.LogPersonCreated(tx, e.runUUID, mpUID, c); err != nil {
		return err
	}

	if c.SourceID != "" {
		added, err := e.store.Identifiers.Add(tx, c.Source, c.SourceID, c.URI, mpUID)
		if err != nil {
			return err
		}
		if added {
			if err := ew.LogIdentifierAdded(tx, e.runUUID, mpUID, c.Source, c.SourceID); err != nil {
				return err
			}
		}
	}

	return e.bindAlias(tx, ew, mpUID, c, applied)
}

func (e *Engine) applyMatch(tx *sql.Tx, ew *events.Writer, mpUID int64, c *domain.CandidateIdentity, applied *Applied) error {
	applied.MPUID = mpUID

	if c.SourceID != "" {
		added, err := e.store.Identifiers.Add(tx, c.Source, c.SourceID, c.URI, mpUID)
		if err != nil {
			return err
		}
		if added {
			if err := ew.LogIdentifierAdded(tx, e.runUUID, mpUID, c.Source, c.SourceID); err != nil {
				return err
			}
		}
	}

	if err := e.mergeAttributes(tx, ew, mpUID, c, applied); err != nil {
		return err
	}

	return e.bindAlias(tx, ew, mpUID, c, applied)
}

// mergeAttributes applies the authority-ranked attribute merge. Empty incoming
// values never erase stored ones; a lower-or-equal authority disagreement
// keeps the stored value and logs a conflict.
func (e *Engine) mergeAttributes(tx *sql.Tx, ew *events.Writer, mpUID int64, c *domain.CandidateIdentity, applied *Applied) error {
	person, err := e.store.Persons.Get(tx, mpUID)
	if err != nil {
		return err
	}
	fieldSources, err := person.GetFieldSources()
	if err != nil {
		return fmt.Errorf("failed to decode field sources for mp_uid=%d: %w", mpUID, err)
	}

	incoming := attributeValues(c)
	updates := map[string]interface{}{}
	changes := map[string]interface{}{}

	for _, field := range mergeableColumns {
		value, ok := incoming[field]
		if !ok {
			continue
		}
		current := currentValue(person, field)

		if current == "" {
			updates[field] = value
			fieldSources[field] = c.Source
			changes[field] = value
			continue
		}
		if current == value {
			continue
		}

		currentAuthority := fieldSources[field].Authority()
		if c.Source.Authority() > currentAuthority {
			updates[field] = value
			fieldSources[field] = c.Source
			changes[field] = value
			continue
		}

		applied.Conflicts++
		conflict := &domain.ConflictingAttributeError{
			MPUID:    mpUID,
			Field:    field,
			Current:  current,
			Incoming: value,
			Source:   c.Source,
		}
		if err := ew.LogAttributeConflict(tx, e.runUUID, conflict); err != nil {
			return err
		}
	}

	if len(updates) == 0 {
		return nil
	}

	sourcesJSON, err := json.Marshal(fieldSources)
	if err != nil {
		return fmt.Errorf("failed to encode field sources: %w", err)
	}
	updates["field_sources"] = string(sourcesJSON)

	if err := e.store.Persons.UpdateFields(tx, mpUID, updates); err != nil {
		return err
	}
	return ew.LogPersonMerged(tx, e.runUUID, mpUID, changes)
}

// bindAlias records the candidate's raw name as an alias of the person. A
// collision with another person's alias is logged and counted but does not
// abort the merge.
func (e *Engine) bindAlias(tx *sql.Tx, ew *events.Writer, mpUID int64, c *domain.CandidateIdentity, applied *Applied) error {
	name := c.DisplayName()
	if name == "" {
		return nil
	}
	_, err := e.store.Aliases.Add(tx, mpUID, name, c.Source)
	var dup *domain.DuplicateAliasError
	if errors.As(err, &dup) {
		applied.Conflicts++
		return ew.LogAliasConflict(tx, e.runUUID, dup)
	}
	return err
}

func (e *Engine) applyDefer(tx *sql.Tx, ew *events.Writer, outcome *domain.Outcome, c *domain.CandidateIdentity, applied *Applied) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode candidate payload: %w", err)
	}

	reviewUUID, err := e.store.Review.Add(tx, store.AddParams{
		Kind:     "candidate",
		Reason:   string(outcome.Reason),
		Source:   c.Source,
		SourceID: c.SourceID,
		RawName:  c.DisplayName(),
		Payload:  string(payload),
		RunUUID:  e.runUUID,
	})
	if err != nil {
		return err
	}
	applied.ReviewUUID = reviewUUID

	return ew.LogCandidateDeferred(tx, e.runUUID, reviewUUID, outcome, c)
}

// attributeValues returns the candidate's non-empty mergeable attributes by
// column name.
func attributeValues(c *domain.CandidateIdentity) map[string]string {
	values := map[string]string{}
	put := func(field, value string) {
		if value != "" {
			values[field] = value
		}
	}
	put("nombre_completo", c.DisplayName())
	put("nombre_propio", c.NombrePropio)
	put("apellido_paterno", c.ApellidoPaterno)
	put("apellido_materno", c.ApellidoMaterno)
	put("genero", c.Bio.Genero)
	put("fecha_nacimiento", c.Bio.FechaNacimiento)
	put("lugar_nacimiento", c.Bio.LugarNacimiento)
	put("profesion", c.Bio.Profesion)
	put("url_foto", c.Bio.URLFoto)
	put("twitter_handle", c.Bio.TwitterHandle)
	put("sitio_web_personal", c.Bio.SitioWebPersonal)
	put("url_historia_politica", c.Bio.URLHistoriaPolitica)
	return values
}

func currentValue(p *domain.Person, field string) string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	switch field {
	case "nombre_completo":
		return p.NombreCompleto
	case "nombre_propio":
		return deref(p.NombrePropio)
	case "apellido_paterno":
		return deref(p.ApellidoPaterno)
	case "apellido_materno":
		return deref(p.ApellidoMaterno)
	case "genero":
		return deref(p.Genero)
	case "fecha_nacimiento":
		return deref(p.FechaNacimiento)
	case "lugar_nacimiento":
		return deref(p.LugarNacimiento)
	case "profesion":
		return deref(p.Profesion)
	case "url_foto":
		return deref(p.URLFoto)
	case "twitter_handle":
		return deref(p.TwitterHandle)
	case "sitio_web_personal":
		return deref(p.SitioWebPersonal)
	case "url_historia_politica":
		return deref(p.URLHistoriaPolitica)
	}
	return ""
}
