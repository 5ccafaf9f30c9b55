package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mhenriquez/parlid/internal/domain"
)

// BCNProfile is one library biography record: a bcn-sourced candidate plus
// the chamber id the library cross-references, used to join enrichment data.
type BCNProfile struct {
	Candidate domain.CandidateIdentity
	CamaraID  string
}

type sparqlResults struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Value string `json:"value"`
}

// ParseBCNProfiles normalizes the library's SPARQL JSON result into profile
// records. The bcn person id is the last path segment of the resource URI.
func ParseBCNProfiles(data []byte) ([]BCNProfile, error) {
	var results sparqlResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse BCN JSON: %w", err)
	}

	get := func(binding map[string]sparqlValue, key string) string {
		return strings.TrimSpace(binding[key].Value)
	}

	var profiles []BCNProfile
	for _, b := range results.Results.Bindings {
		uri := get(b, "bcn_uri")
		profile := BCNProfile{
			CamaraID: get(b, "diputadoid"),
			Candidate: domain.CandidateIdentity{
				Source:          domain.SourceBCN,
				SourceID:        uriTail(uri),
				URI:             uri,
				NombrePropio:    get(b, "nombre_propio"),
				ApellidoPaterno: get(b, "apellido_paterno"),
				ApellidoMaterno: get(b, "apellido_materno"),
				Bio: domain.Bio{
					FechaNacimiento:     dateOnly(get(b, "fecha_nacimiento")),
					LugarNacimiento:     get(b, "lugar_nacimiento"),
					Profesion:           get(b, "profesion"),
					URLFoto:             get(b, "url_foto"),
					TwitterHandle:       get(b, "twitter_handle"),
					SitioWebPersonal:    get(b, "sitio_web_personal"),
					URLHistoriaPolitica: get(b, "url_historia_politica"),
				},
			},
		}
		profile.Candidate.RawName = joinName(
			profile.Candidate.NombrePropio,
			profile.Candidate.ApellidoPaterno,
			profile.Candidate.ApellidoMaterno,
		)
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func uriTail(uri string) string {
	if uri == "" {
		return ""
	}
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
