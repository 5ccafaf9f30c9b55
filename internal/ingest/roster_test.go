package ingest

import (
	"testing"

	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/source"
	"github.com/mhenriquez/parlid/internal/store"
	"github.com/mhenriquez/parlid/internal/testutil"
)

func sourceRoster() []source.RosterRecord {
	return []source.RosterRecord{
		{
			Candidate: domain.CandidateIdentity{
				Source:          domain.SourceCamara,
				SourceID:        "101",
				RawName:         "Juan Pérez Soto",
				NombrePropio:    "Juan",
				ApellidoPaterno: "Pérez",
				ApellidoMaterno: "Soto",
			},
			Distrito:    "9",
			FechaInicio: "2022-03-11",
			FechaFin:    "2026-03-10",
			Militancias: []source.Militancia{
				{Partido: "Partido Azul", FechaInicio: "2018-01-01"},
			},
		},
		{
			Candidate: domain.CandidateIdentity{
				Source:          domain.SourceCamara,
				SourceID:        "102",
				RawName:         "María Muñoz Rojas",
				NombrePropio:    "María",
				ApellidoPaterno: "Muñoz",
				ApellidoMaterno: "Rojas",
			},
			Distrito:    "12",
			FechaInicio: "2022-03-11",
			FechaFin:    "2026-03-10",
		},
	}
}

func tableCount(t *testing.T, s *store.Store, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := s.DB().QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func TestIngestRoster_WritesMandatesAndMilitancia(t *testing.T) {
	s := testutil.TempStore(t)
	runner, err := NewRunner(s, domain.SourceCamara, Options{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, runner.IngestRoster(sourceRoster()))

	summary, err := runner.Finish()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, summary.Created)

	testutil.AssertEqual(t, 2, tableCount(t, s, "SELECT COUNT(*) FROM parlamentario_mandatos"))
	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM militancia_historial"))

	partidoID, ok, err := s.Facts.PartidoIDByName("Partido Azul")
	testutil.AssertNoError(t, err)
	if !ok || partidoID == 0 {
		t.Errorf("expected the party upserted, got (%d, %v)", partidoID, ok)
	}

	var distrito string
	err = s.DB().QueryRow(`
		SELECT m.distrito FROM parlamentario_mandatos m
		JOIN parlamentario_ids e ON e.mp_uid = m.mp_uid
		WHERE e.source_system = 'camara' AND e.source_id = '101'
	`).Scan(&distrito)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "9", distrito)
}

// A fresh roster pull replaces the previous facts instead of stacking rows.
func TestIngestRoster_RerunReplacesFacts(t *testing.T) {
	s := testutil.TempStore(t)
	for i := 0; i < 2; i++ {
		runner, err := NewRunner(s, domain.SourceCamara, Options{})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, runner.IngestRoster(sourceRoster()))
		if _, err := runner.Finish(); err != nil {
			t.Fatalf("Finish failed: %v", err)
		}
	}

	testutil.AssertEqual(t, 2, tableCount(t, s, "SELECT COUNT(*) FROM dim_parlamentario"))
	testutil.AssertEqual(t, 2, tableCount(t, s, "SELECT COUNT(*) FROM parlamentario_mandatos"))
	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM militancia_historial"))

	n := tableCount(t, s, "SELECT COUNT(*) FROM event_log WHERE event_type = 'relation.replaced'")
	if n == 0 {
		t.Error("expected relation.replaced events for the refresh")
	}
}

func TestIngestComisiones_SkipsUnknownMembers(t *testing.T) {
	s := testutil.TempStore(t)
	runner, err := NewRunner(s, domain.SourceCamara, Options{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, runner.IngestRoster(sourceRoster()))

	err = runner.IngestComisiones([]source.CommitteeRecord{{
		ComisionID: 401,
		Nombre:     "Comisión de Hacienda",
		Tipo:       "Permanente",
		Miembros: []source.CommitteeMember{
			{DiputadoID: "101", Rol: "Presidente"},
			{DiputadoID: "999"}, // not on the roster
		},
	}})
	testutil.AssertNoError(t, err)

	summary, err := runner.Finish()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 1, summary.Unresolved)

	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM dim_comisiones"))
	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM comision_membresias"))
	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM event_log WHERE event_type = 'membership.skipped'"))
}

func TestIngestComisiones_RefreshDoesNotStack(t *testing.T) {
	s := testutil.TempStore(t)
	comisiones := []source.CommitteeRecord{{
		ComisionID: 401,
		Nombre:     "Comisión de Hacienda",
		Miembros:   []source.CommitteeMember{{DiputadoID: "101"}},
	}}

	for i := 0; i < 2; i++ {
		runner, err := NewRunner(s, domain.SourceCamara, Options{})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, runner.IngestRoster(sourceRoster()))
		testutil.AssertNoError(t, runner.IngestComisiones(comisiones))
		if _, err := runner.Finish(); err != nil {
			t.Fatalf("Finish failed: %v", err)
		}
	}

	testutil.AssertEqual(t, 1, tableCount(t, s, "SELECT COUNT(*) FROM comision_membresias"))
}

func TestIngestProfiles_BindsByChamberID(t *testing.T) {
	s := testutil.TempStore(t)
	camara, err := NewRunner(s, domain.SourceCamara, Options{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, camara.IngestRoster(sourceRoster()))
	if _, err := camara.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	bcn, err := NewRunner(s, domain.SourceBCN, Options{})
	testutil.AssertNoError(t, err)
	err = bcn.IngestProfiles([]source.BCNProfile{
		{
			// Cross-reference id binds straight to the chamber person even
			// though the spelling differs.
			Candidate: domain.CandidateIdentity{
				Source:   domain.SourceBCN,
				SourceID: "juan-perez-soto",
				RawName:  "Juan Antonio Pérez Soto",
				Bio:      domain.Bio{Profesion: "Abogado"},
			},
			CamaraID: "101",
		},
		{
			// No cross-reference: resolves through the normal name path.
			Candidate: domain.CandidateIdentity{
				Source:   domain.SourceBCN,
				SourceID: "maria-munoz-rojas",
				RawName:  "María Muñoz Rojas",
			},
		},
	})
	testutil.AssertNoError(t, err)

	summary, err := bcn.Finish()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, summary.Matched)
	testutil.AssertEqual(t, 0, summary.Created)

	mpUID, ok, err := s.Aliases.Bound(nil, "Juan Pérez Soto")
	testutil.AssertNoError(t, err)
	if !ok {
		t.Fatal("expected the roster alias to stay bound")
	}
	person, err := s.Persons.Get(nil, mpUID)
	testutil.AssertNoError(t, err)
	if person.Profesion == nil || *person.Profesion != "Abogado" {
		t.Errorf("expected the profile to enrich profesion, got %v", person.Profesion)
	}

	n := tableCount(t, s, "SELECT COUNT(*) FROM parlamentario_ids WHERE source_system = 'bcn'")
	testutil.AssertEqual(t, 2, n)
}
