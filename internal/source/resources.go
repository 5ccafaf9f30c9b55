package source

// Resource paths under the configured per-source base URLs.
const (
	CamaraRosterResource     = "diputados/periodo-actual"
	CamaraComisionesResource = "comisiones/actuales"
	BCNProfilesResource      = "personas/diputados.json"
)

// CamaraVoteResource returns the vote-detail resource for one bulletin.
func CamaraVoteResource(billID string) string {
	return "votaciones/boletin/" + billID
}
