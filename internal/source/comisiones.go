package source

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// CommitteeRecord is one committee with its current member roster.
type CommitteeRecord struct {
	ComisionID int64
	Nombre     string
	Tipo       string
	Miembros   []CommitteeMember
}

// CommitteeMember is one committee seat, identified by the chamber deputy id.
type CommitteeMember struct {
	DiputadoID string
	Rol        string
}

type camaraComisiones struct {
	Comisiones []camaraComision `xml:"Comision"`
}

type camaraComision struct {
	ID          int64              `xml:"Id"`
	Nombre      string             `xml:"Nombre"`
	Tipo        string             `xml:"Tipo"`
	Integrantes []camaraIntegrante `xml:"Integrantes>Integrante"`
}

type camaraIntegrante struct {
	Diputado camaraVotoDiputado `xml:"Diputado"`
	Cargo    string             `xml:"Cargo"`
}

// ParseComisiones normalizes the chamber committees XML into committee
// records. Committees without an id are skipped; seats without a deputy id
// are dropped from the roster.
func ParseComisiones(data []byte) ([]CommitteeRecord, error) {
	var coleccion camaraComisiones
	if err := xml.Unmarshal(data, &coleccion); err != nil {
		return nil, fmt.Errorf("failed to parse committees XML: %w", err)
	}

	var records []CommitteeRecord
	for _, com := range coleccion.Comisiones {
		if com.ID == 0 {
			continue
		}
		record := CommitteeRecord{
			ComisionID: com.ID,
			Nombre:     strings.TrimSpace(com.Nombre),
			Tipo:       strings.TrimSpace(com.Tipo),
		}
		for _, seat := range com.Integrantes {
			id := strings.TrimSpace(seat.Diputado.ID)
			if id == "" {
				continue
			}
			record.Miembros = append(record.Miembros, CommitteeMember{
				DiputadoID: id,
				Rol:        strings.TrimSpace(seat.Cargo),
			})
		}
		records = append(records, record)
	}
	return records, nil
}
