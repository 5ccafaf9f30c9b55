package resolve

import (
	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/normalize"
)

type identKey struct {
	source domain.SourceSystem
	id     string
}

// personEntry holds the normalized name material of one canonical person.
type personEntry struct {
	mpUID int64
	// variants are the normalized token combinations a mention may use:
	// surname alone, given+paternal, paternal+maternal, and the full name.
	variants [][]string
}

// Snapshot is a consistent, in-memory view of the canonical identity store
// taken at the start of a run. The resolver only reads it; the ingest runner
// extends it as merges commit so later candidates in the same run see
// earlier decisions.
type Snapshot struct {
	ids     map[identKey]int64
	aliases map[string]int64   // alias_norm -> mp_uid (globally unique)
	names   map[string][]int64 // normalized name variant -> mp_uids (may collide)
	persons map[int64]*personEntry
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ids:     make(map[identKey]int64),
		aliases: make(map[string]int64),
		names:   make(map[string][]int64),
		persons: make(map[int64]*personEntry),
	}
}

// AddIdentifier registers a (source, source_id) binding.
func (s *Snapshot) AddIdentifier(source domain.SourceSystem, sourceID string, mpUID int64) {
	if sourceID == "" {
		return
	}
	s.ids[identKey{source: source, id: sourceID}] = mpUID
}

// LookupIdentifier returns the person bound to (source, source_id), if any.
func (s *Snapshot) LookupIdentifier(source domain.SourceSystem, sourceID string) (int64, bool) {
	mpUID, ok := s.ids[identKey{source: source, id: sourceID}]
	return mpUID, ok
}

// AddAlias registers an alias binding. The text is normalized here, so
// callers may pass raw alias text.
func (s *Snapshot) AddAlias(alias string, mpUID int64) {
	norm := normalize.Name(alias)
	if norm == "" {
		return
	}
	s.aliases[norm] = mpUID
}

// AliasBound returns the person an alias is bound to, if any.
func (s *Snapshot) AliasBound(alias string) (int64, bool) {
	mpUID, ok := s.aliases[normalize.Name(alias)]
	return mpUID, ok
}

// AddPerson registers a person's name material for exact and approximate
// matching. Empty name components are skipped.
func (s *Snapshot) AddPerson(mpUID int64, nombreCompleto, nombrePropio, apellidoPaterno, apellidoMaterno string) {
	entry := &personEntry{mpUID: mpUID}

	add := func(parts ...string) {
		var joined string
		for _, p := range parts {
			if p == "" {
				return
			}
			if joined != "" {
				joined += " "
			}
			joined += p
		}
		tokens := normalize.Tokens(joined)
		if len(tokens) == 0 {
			return
		}
		entry.variants = append(entry.variants, tokens)
		key := normalize.Name(joined)
		if !containsUID(s.names[key], mpUID) {
			s.names[key] = append(s.names[key], mpUID)
		}
	}

	add(nombreCompleto)
	add(apellidoPaterno)
	add(nombrePropio, apellidoPaterno)
	add(apellidoPaterno, apellidoMaterno)
	add(nombrePropio, apellidoPaterno, apellidoMaterno)

	if len(entry.variants) == 0 {
		return
	}
	s.persons[mpUID] = entry
}

// NameMatches returns the distinct persons whose normalized name variants or
// alias exactly equal the normalized candidate name.
func (s *Snapshot) NameMatches(name string) []int64 {
	key := normalize.Name(name)
	if key == "" {
		return nil
	}
	var out []int64
	if mpUID, ok := s.aliases[key]; ok {
		out = append(out, mpUID)
	}
	for _, mpUID := range s.names[key] {
		if !containsUID(out, mpUID) {
			out = append(out, mpUID)
		}
	}
	return out
}

func containsUID(uids []int64, uid int64) bool {
	for _, u := range uids {
		if u == uid {
			return true
		}
	}
	return false
}
