package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/config"
	"github.com/mhenriquez/parlid/internal/db"
	"github.com/mhenriquez/parlid/internal/domain"
	"github.com/mhenriquez/parlid/internal/id"
	"github.com/mhenriquez/parlid/internal/source"
	"github.com/mhenriquez/parlid/internal/store"
)

// openStore loads config, opens the database and refuses to proceed when
// migrations are pending. The caller owns closing the returned database.
func openStore(cmd *cobra.Command) (*config.Config, *db.DB, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RequiresMigrationError(); err != nil {
		database.Close()
		return nil, nil, nil, err
	}

	return cfg, database, store.New(database), nil
}

// newFetcher builds the fetch boundary: HTTP with retries, backed by the
// on-disk cache so re-runs work offline.
func newFetcher(cfg *config.Config) source.Fetcher {
	bases := map[domain.SourceSystem]string{}
	if cfg.CamaraBaseURL != "" {
		bases[domain.SourceCamara] = cfg.CamaraBaseURL
	}
	if cfg.SenadoBaseURL != "" {
		bases[domain.SourceSenado] = cfg.SenadoBaseURL
	}
	if cfg.BCNBaseURL != "" {
		bases[domain.SourceBCN] = cfg.BCNBaseURL
	}
	retrying := source.NewRetryFetcher(source.NewHTTPFetcher(bases), 3, time.Second)
	return source.NewCacheFetcher(retrying, cfg.CacheDir)
}

// resolvePersonRef accepts an MP-00042 friendly ID or a bare mp_uid.
func resolvePersonRef(s *store.Store, ref string) (*domain.Person, error) {
	if id.IsFriendlyID(ref) {
		return s.Persons.GetByFriendlyID(ref)
	}
	mpUID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid person reference %q (want MP-00042 or mp_uid)", ref)
	}
	return s.Persons.Get(nil, mpUID)
}

func parseSource(arg string) (domain.SourceSystem, error) {
	source := domain.SourceSystem(strings.ToLower(strings.TrimSpace(arg)))
	if err := domain.ValidateSourceSystem(source); err != nil {
		return "", err
	}
	return source, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
