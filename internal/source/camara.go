package source

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mhenriquez/parlid/internal/domain"
)

// RosterRecord is one chamber roster entry: the candidate identity plus the
// mandate and party-affiliation facts that ride along with it.
type RosterRecord struct {
	Candidate   domain.CandidateIdentity
	Distrito    string
	FechaInicio string
	FechaFin    string
	Militancias []Militancia
}

// Militancia is one party-affiliation period as the chamber reports it.
type Militancia struct {
	Partido     string
	FechaInicio string
	FechaFin    string
}

type camaraRoster struct {
	Periodos []camaraDiputadoPeriodo `xml:"DiputadoPeriodo"`
}

type camaraDiputadoPeriodo struct {
	Diputado     camaraDiputado `xml:"Diputado"`
	Distrito     camaraDistrito `xml:"Distrito"`
	FechaInicio  string         `xml:"FechaInicio"`
	FechaTermino string         `xml:"FechaTermino"`
}

type camaraDiputado struct {
	ID              string             `xml:"Id"`
	Nombre          string             `xml:"Nombre"`
	ApellidoPaterno string             `xml:"ApellidoPaterno"`
	ApellidoMaterno string             `xml:"ApellidoMaterno"`
	Sexo            camaraSexo         `xml:"Sexo"`
	Militancias     []camaraMilitancia `xml:"Militancias>Militancia"`
}

type camaraDistrito struct {
	Numero string `xml:"Numero,attr"`
}

type camaraSexo struct {
	Valor string `xml:"Valor,attr"`
}

type camaraMilitancia struct {
	Partido      camaraPartido `xml:"Partido"`
	FechaInicio  string        `xml:"FechaInicio"`
	FechaTermino string        `xml:"FechaTermino"`
}

type camaraPartido struct {
	Nombre string `xml:"Nombre"`
}

// ParseRoster normalizes the chamber roster XML into roster records. Entries
// without a deputy element are skipped.
func ParseRoster(data []byte) ([]RosterRecord, error) {
	var roster camaraRoster
	if err := xml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster XML: %w", err)
	}

	var records []RosterRecord
	for _, periodo := range roster.Periodos {
		d := periodo.Diputado
		if d.ID == "" && d.Nombre == "" && d.ApellidoPaterno == "" {
			continue
		}

		genero := "Masculino"
		if d.Sexo.Valor == "0" {
			genero = "Femenino"
		}

		record := RosterRecord{
			Candidate: domain.CandidateIdentity{
				Source:          domain.SourceCamara,
				SourceID:        strings.TrimSpace(d.ID),
				RawName:         joinName(d.Nombre, d.ApellidoPaterno, d.ApellidoMaterno),
				NombrePropio:    strings.TrimSpace(d.Nombre),
				ApellidoPaterno: strings.TrimSpace(d.ApellidoPaterno),
				ApellidoMaterno: strings.TrimSpace(d.ApellidoMaterno),
				Bio:             domain.Bio{Genero: genero},
			},
			Distrito:    periodo.Distrito.Numero,
			FechaInicio: dateOnly(periodo.FechaInicio),
			FechaFin:    dateOnly(periodo.FechaTermino),
		}
		for _, m := range d.Militancias {
			if m.Partido.Nombre == "" {
				continue
			}
			record.Militancias = append(record.Militancias, Militancia{
				Partido:     strings.TrimSpace(m.Partido.Nombre),
				FechaInicio: dateOnly(m.FechaInicio),
				FechaFin:    dateOnly(m.FechaTermino),
			})
		}
		records = append(records, record)
	}
	return records, nil
}

type camaraVotacionDetalle struct {
	Fecha string       `xml:"Fecha"`
	Votos []camaraVoto `xml:"Votos>Voto"`
}

type camaraVoto struct {
	Diputado   camaraVotoDiputado `xml:"Diputado"`
	OpcionVoto string             `xml:"OpcionVoto"`
}

type camaraVotoDiputado struct {
	ID string `xml:"Id"`
}

// ParseVoteDetail normalizes one chamber vote-detail payload into vote
// mentions against the given bulletin.
func ParseVoteDetail(billID string, data []byte) ([]domain.RawMention, error) {
	var detalle camaraVotacionDetalle
	if err := xml.Unmarshal(data, &detalle); err != nil {
		return nil, fmt.Errorf("failed to parse vote detail XML for %s: %w", billID, err)
	}

	fecha := dateOnly(detalle.Fecha)
	var mentions []domain.RawMention
	for _, v := range detalle.Votos {
		mentions = append(mentions, domain.RawMention{
			Kind:     domain.MentionVote,
			Source:   domain.SourceCamara,
			SourceID: strings.TrimSpace(v.Diputado.ID),
			BillID:   billID,
			Voto:     strings.TrimSpace(v.OpcionVoto),
			Fecha:    fecha,
		})
	}
	return mentions, nil
}

func joinName(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// dateOnly strips the time component off the chamber's ISO timestamps.
func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
