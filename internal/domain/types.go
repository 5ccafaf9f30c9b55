// Package domain holds the core types of the identity consolidation engine:
// canonical persons, their external identifiers and aliases, the candidate
// and mention shapes produced by source normalizers, and resolution outcomes.
package domain

import (
	"encoding/json"
	"time"
)

// SourceSystem identifies which external system a record came from.
type SourceSystem string

const (
	SourceCamara   SourceSystem = "camara"   // chamber-of-deputies administrative API
	SourceSenado   SourceSystem = "senado"   // senate administrative API
	SourceBCN      SourceSystem = "bcn"      // national-library linked-data endpoint
	SourceFreeText SourceSystem = "freetext" // names inside votes, news, bill descriptions
)

// Authority returns the attribute-merge rank of a source system.
// Biography/profile data outranks administrative data, which outranks free text.
func (s SourceSystem) Authority() int {
	switch s {
	case SourceBCN:
		return 3
	case SourceCamara, SourceSenado:
		return 2
	default:
		return 1
	}
}

// Person is the canonical record for one legislator, keyed by MPUID.
// MPUID is assigned once and never reused.
type Person struct {
	MPUID               int64     `json:"mp_uid" db:"mp_uid"`
	UUID                string    `json:"uuid" db:"uuid"`
	ID                  string    `json:"id" db:"id"` // friendly ID, MP-00042
	NombreCompleto      string    `json:"nombre_completo" db:"nombre_completo"`
	NombrePropio        *string   `json:"nombre_propio,omitempty" db:"nombre_propio"`
	ApellidoPaterno     *string   `json:"apellido_paterno,omitempty" db:"apellido_paterno"`
	ApellidoMaterno     *string   `json:"apellido_materno,omitempty" db:"apellido_materno"`
	Genero              *string   `json:"genero,omitempty" db:"genero"`
	FechaNacimiento     *string   `json:"fecha_nacimiento,omitempty" db:"fecha_nacimiento"`
	LugarNacimiento     *string   `json:"lugar_nacimiento,omitempty" db:"lugar_nacimiento"`
	Profesion           *string   `json:"profesion,omitempty" db:"profesion"`
	URLFoto             *string   `json:"url_foto,omitempty" db:"url_foto"`
	TwitterHandle       *string   `json:"twitter_handle,omitempty" db:"twitter_handle"`
	SitioWebPersonal    *string   `json:"sitio_web_personal,omitempty" db:"sitio_web_personal"`
	URLHistoriaPolitica *string   `json:"url_historia_politica,omitempty" db:"url_historia_politica"`
	FieldSources        *string   `json:"field_sources,omitempty" db:"field_sources"` // JSON: attribute -> source system
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// GetFieldSources parses the field_sources JSON into a map.
func (p *Person) GetFieldSources() (map[string]SourceSystem, error) {
	if p.FieldSources == nil || *p.FieldSources == "" {
		return map[string]SourceSystem{}, nil
	}
	var sources map[string]SourceSystem
	if err := json.Unmarshal([]byte(*p.FieldSources), &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// SetFieldSources sets the field_sources JSON from a map.
func (p *Person) SetFieldSources(sources map[string]SourceSystem) error {
	if sources == nil {
		sources = map[string]SourceSystem{}
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	s := string(data)
	p.FieldSources = &s
	return nil
}

// ExternalIdentifier binds a (source_system, source_id) pair to exactly one person.
type ExternalIdentifier struct {
	Source    SourceSystem `json:"source_system" db:"source_system"`
	SourceID  string       `json:"source_id" db:"source_id"`
	MPUID     int64        `json:"mp_uid" db:"mp_uid"`
	URI       *string      `json:"uri,omitempty" db:"uri"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// AliasRecord is a free-text name variant bound to one person.
// The normalized alias text is globally unique.
type AliasRecord struct {
	AliasID   int64        `json:"alias_id" db:"alias_id"`
	MPUID     int64        `json:"mp_uid" db:"mp_uid"`
	Alias     string       `json:"alias" db:"alias"`
	AliasNorm string       `json:"alias_norm" db:"alias_norm"`
	Source    SourceSystem `json:"source_system" db:"source_system"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Bio carries the optional biographical attributes of a candidate.
// Empty string means the source did not provide the attribute.
type Bio struct {
	Genero              string `json:"genero,omitempty"`
	FechaNacimiento     string `json:"fecha_nacimiento,omitempty"`
	LugarNacimiento     string `json:"lugar_nacimiento,omitempty"`
	Profesion           string `json:"profesion,omitempty"`
	URLFoto             string `json:"url_foto,omitempty"`
	TwitterHandle       string `json:"twitter_handle,omitempty"`
	SitioWebPersonal    string `json:"sitio_web_personal,omitempty"`
	URLHistoriaPolitica string `json:"url_historia_politica,omitempty"`
}

// CandidateIdentity is the uniform shape every source record is normalized
// into before resolution. SourceID is empty for free-text mentions.
type CandidateIdentity struct {
	Source          SourceSystem `json:"source_system"`
	SourceID        string       `json:"source_id,omitempty"`
	URI             string       `json:"uri,omitempty"`
	RawName         string       `json:"raw_name"`
	NombrePropio    string       `json:"nombre_propio,omitempty"`
	ApellidoPaterno string       `json:"apellido_paterno,omitempty"`
	ApellidoMaterno string       `json:"apellido_materno,omitempty"`
	Bio             Bio          `json:"bio,omitempty"`
}

// DisplayName returns the best display name the candidate carries.
func (c *CandidateIdentity) DisplayName() string {
	if c.RawName != "" {
		return c.RawName
	}
	name := c.NombrePropio
	for _, part := range []string{c.ApellidoPaterno, c.ApellidoMaterno} {
		if part != "" {
			if name != "" {
				name += " "
			}
			name += part
		}
	}
	return name
}

// OutcomeKind is the decision the resolver reached for a candidate.
type OutcomeKind string

const (
	OutcomeMatched  OutcomeKind = "matched"
	OutcomeCreated  OutcomeKind = "created"
	OutcomeDeferred OutcomeKind = "deferred"
)

// DeferReason explains why a candidate was deferred to the review queue.
type DeferReason string

const (
	DeferAmbiguousMatch DeferReason = "ambiguous_match"
	DeferBelowThreshold DeferReason = "below_threshold"
)

// Outcome is the result of resolving one candidate against a store snapshot.
// For OutcomeCreated the MPUID is minted later, by the merge engine's insert.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	MPUID      int64       `json:"mp_uid,omitempty"`
	Reason     DeferReason `json:"reason,omitempty"`
	Candidates []int64     `json:"candidates,omitempty"` // ambiguous hits, for review
	Score      float64     `json:"score,omitempty"`
	RunnerUp   float64     `json:"runner_up,omitempty"`
}

// MentionKind classifies a dependent-fact mention.
type MentionKind string

const (
	MentionVote        MentionKind = "vote"
	MentionAuthorship  MentionKind = "authorship"
	MentionSpeech      MentionKind = "speech"
	MentionInteraction MentionKind = "interaction"
)

// RawMention is a reference to a legislator (and possibly a bill) inside a
// dependent fact. Structured mentions carry SourceID; free-text mentions
// carry only Text.
type RawMention struct {
	Kind      MentionKind  `json:"kind"`
	Source    SourceSystem `json:"source_system"`
	SourceID  string       `json:"source_id,omitempty"`
	Text      string       `json:"text,omitempty"`
	BillID    string       `json:"bill_id,omitempty"`
	Voto      string       `json:"voto,omitempty"`
	Fecha     string       `json:"fecha,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
	Orden     int          `json:"orden,omitempty"`
}

// Reference is a resolved mention: the canonical person (and bill, when the
// mention carried one) a dependent fact should point at.
type Reference struct {
	MPUID  int64  `json:"mp_uid"`
	BillID string `json:"bill_id,omitempty"`
}

// Mandate is a position period held by a person (e.g. Diputado for a district).
type Mandate struct {
	MPUID       int64        `json:"mp_uid"`
	Cargo       string       `json:"cargo"`
	Distrito    string       `json:"distrito,omitempty"`
	PartidoID   *int64       `json:"partido_id,omitempty"`
	FechaInicio string       `json:"fecha_inicio,omitempty"`
	FechaFin    string       `json:"fecha_fin,omitempty"`
	Source      SourceSystem `json:"source_system"`
}

// Membership is a committee membership row, attributed to the source that
// declared it so a full refresh retracts only its own rows.
type Membership struct {
	MPUID       int64        `json:"mp_uid"`
	ComisionID  int64        `json:"comision_id"`
	Rol         string       `json:"rol"`
	FechaInicio string       `json:"fecha_inicio,omitempty"`
	FechaFin    string       `json:"fecha_fin,omitempty"`
	Source      SourceSystem `json:"source_system"`
}

// ReviewStatus is the lifecycle state of a review queue entry.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewResolved  ReviewStatus = "resolved"
	ReviewDiscarded ReviewStatus = "discarded"
)

// ReviewEntry is a deferred candidate or unresolved mention parked for
// out-of-band follow-up.
type ReviewEntry struct {
	RQUID         int64        `json:"rq_uid" db:"rq_uid"`
	UUID          string       `json:"uuid" db:"uuid"`
	ID            string       `json:"id" db:"id"` // friendly ID, RQ-00007
	Kind          string       `json:"kind" db:"kind"`
	Reason        string       `json:"reason" db:"reason"`
	Source        SourceSystem `json:"source_system" db:"source_system"`
	SourceID      *string      `json:"source_id,omitempty" db:"source_id"`
	RawName       *string      `json:"raw_name,omitempty" db:"raw_name"`
	Payload       *string      `json:"payload,omitempty" db:"payload"`
	RunUUID       *string      `json:"run_uuid,omitempty" db:"run_uuid"`
	Status        ReviewStatus `json:"status" db:"status"`
	ResolvedMPUID *int64       `json:"resolved_mp_uid,omitempty" db:"resolved_mp_uid"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// Event is an entry in the provenance event log.
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	RunUUID      *string   `json:"run_uuid,omitempty" db:"run_uuid"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceUID  *string   `json:"resource_uid,omitempty" db:"resource_uid"`
	EventType    string    `json:"event_type" db:"event_type"`
	Payload      *string   `json:"payload,omitempty" db:"payload"`
}

// RunSummary is the per-run accounting row. Nothing is silently dropped:
// every count besides matched/created/linked has review queue or event log
// entries behind it.
type RunSummary struct {
	RunUUID    string       `json:"run_uuid" db:"run_uuid"`
	Source     SourceSystem `json:"source_system" db:"source_system"`
	StartedAt  time.Time    `json:"started_at" db:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty" db:"finished_at"`
	Matched    int          `json:"matched" db:"matched"`
	Created    int          `json:"created" db:"created"`
	Deferred   int          `json:"deferred" db:"deferred"`
	Malformed  int          `json:"malformed" db:"malformed"`
	Conflicts  int          `json:"conflicts" db:"conflicts"`
	Linked     int          `json:"linked" db:"linked"`
	Unresolved int          `json:"unresolved" db:"unresolved"`
}
