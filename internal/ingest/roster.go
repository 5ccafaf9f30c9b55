package ingest

import (
	"database/sql"
	"fmt"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/events"
	"github.com/mhenriquez/parlid/internal/source"
	"github.com/mhenriquez/parlid/internal/store"
)

// IngestRoster resolves the roster's candidate identities and then writes the
// mandate and party-affiliation facts that ride along with each entry.
// Fact rows for a person are a source-scoped full refresh. Entries whose
// candidate was deferred carry no facts until the review entry is resolved.
func (r *Runner) IngestRoster(records []source.RosterRecord) error {
	candidates := make([]domain.CandidateIdentity, 0, len(records))
	for i := range records {
		candidates = append(candidates, records[i].Candidate)
	}
	if err := r.ResolveCandidates(candidates); err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]
		if rec.Candidate.SourceID == "" {
			continue
		}
		mpUID, ok := r.snap.LookupIdentifier(rec.Candidate.Source, rec.Candidate.SourceID)
		if !ok {
			continue
		}
		if err := r.applyRosterFacts(mpUID, rec); err != nil {
			return fmt.Errorf("failed to apply roster facts for %q: %w", rec.Candidate.DisplayName(), err)
		}
	}
	return nil
}

func (r *Runner) applyRosterFacts(mpUID int64, rec *source.RosterRecord) error {
	return r.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		mandates := []domain.Mandate{{
			MPUID:       mpUID,
			Cargo:       "Diputado",
			Distrito:    rec.Distrito,
			FechaInicio: rec.FechaInicio,
			FechaFin:    rec.FechaFin,
			Source:      rec.Candidate.Source,
		}}
		retracted, err := r.store.Facts.ReplaceMandatos(tx, mpUID, rec.Candidate.Source, mandates)
		if err != nil {
			return err
		}
		if err := ew.LogSubRelationReplaced(tx, r.runUUID, "parlamentario_mandatos", rec.Candidate.Source, retracted, len(mandates)); err != nil {
			return err
		}

		var militancia []store.MilitanciaRow
		for _, m := range rec.Militancias {
			partidoID, err := r.store.Facts.UpsertPartido(tx, store.PartyParams{NombrePartido: m.Partido})
			if err != nil {
				return err
			}
			militancia = append(militancia, store.MilitanciaRow{
				PartidoID:   partidoID,
				FechaInicio: m.FechaInicio,
				FechaFin:    m.FechaFin,
			})
		}
		retracted, err = r.store.Facts.ReplaceMilitancia(tx, mpUID, rec.Candidate.Source, militancia)
		if err != nil {
			return err
		}
		return ew.LogSubRelationReplaced(tx, r.runUUID, "militancia_historial", rec.Candidate.Source, retracted, len(militancia))
	})
}

// IngestComisiones refreshes the committee catalog and this source's
// membership rows in one transaction. Seats held by an unknown deputy id are
// skipped and counted; they become memberships once the deputy is ingested.
func (r *Runner) IngestComisiones(comisiones []source.CommitteeRecord) error {
	return r.store.WithTx(func(tx *sql.Tx, ew *events.Writer) error {
		var rows []domain.Membership
		for _, com := range comisiones {
			if err := r.store.Facts.UpsertComision(tx, com.ComisionID, com.Nombre, com.Tipo); err != nil {
				return err
			}
			for _, seat := range com.Miembros {
				mpUID, ok := r.snap.LookupIdentifier(r.source, seat.DiputadoID)
				if !ok {
					r.summary.Unresolved++
					if err := ew.LogMembershipSkipped(tx, r.runUUID, com.ComisionID, seat.DiputadoID); err != nil {
						return err
					}
					continue
				}
				rows = append(rows, domain.Membership{
					MPUID:      mpUID,
					ComisionID: com.ComisionID,
					Rol:        seat.Rol,
					Source:     r.source,
				})
			}
		}
		retracted, err := r.store.Facts.ReplaceMemberships(tx, r.source, rows)
		if err != nil {
			return err
		}
		return ew.LogSubRelationReplaced(tx, r.runUUID, "comision_membresias", r.source, retracted, len(rows))
	})
}

// IngestProfiles merges library biography profiles. A profile carrying the
// chamber's cross-reference id binds straight to that person; the rest go
// through normal resolution.
func (r *Runner) IngestProfiles(profiles []source.BCNProfile) error {
	var rest []domain.CandidateIdentity
	for i := range profiles {
		p := &profiles[i]
		if p.CamaraID != "" {
			if mpUID, ok := r.snap.LookupIdentifier(domain.SourceCamara, p.CamaraID); ok {
				outcome := domain.Outcome{Kind: domain.OutcomeMatched, MPUID: mpUID, Score: 1}
				applied, err := r.engine.Apply(&outcome, &p.Candidate)
				if err != nil {
					return fmt.Errorf("failed to merge profile %q: %w", p.Candidate.DisplayName(), err)
				}
				r.summary.Matched++
				r.summary.Conflicts += applied.Conflicts
				r.observe(mpUID, &p.Candidate)
				continue
			}
		}
		rest = append(rest, p.Candidate)
	}
	return r.ResolveCandidates(rest)
}
