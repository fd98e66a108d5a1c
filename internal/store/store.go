// Package store persists the pipeline run log and, optionally, the
// aggregated series and cleaned reports.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/config"
	"github.com/sells-group/covidsync/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Variant string          `json:"variant,omitempty"`
	Status  model.RunStatus `json:"status,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for pipeline runs and outputs.
type Store interface {
	// Runs
	StartRun(ctx context.Context, variant string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Outputs. Both replace whatever was stored for the variant.
	SaveSeries(ctx context.Context, variant string, rows []model.SeriesRow) (int64, error)
	SaveReports(ctx context.Context, variant string, rows []model.Report) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver, migrated and ready.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "store: create %s", dir)
			}
		}
		s, err = NewSQLite(cfg.SQLitePath)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck,gosec
		return nil, err
	}
	return s, nil
}

func listLimit(filter RunFilter) int {
	if filter.Limit <= 0 {
		return 20
	}
	return filter.Limit
}

// seriesColumns is the column order shared by both SQL backends.
var seriesColumns = []string{
	"variant", "entity", "date",
	"confirmed", "deaths", "recovered", "active",
	"total_test_results", "people_hospitalized",
	"incident_rate", "testing_rate", "hospitalization_rate", "case_fatality_ratio",
	"new_confirmed", "new_deaths", "new_recovered", "new_active",
	"new_confirmed_ma7", "new_deaths_ma7", "new_recovered_ma7", "new_active_ma7",
}

func seriesArgs(variant string, r model.SeriesRow) []any {
	return []any{
		variant, r.Entity, r.Date.String(),
		r.Confirmed, r.Deaths, r.Recovered, r.Active,
		r.TotalTestResults, r.PeopleHospitalized,
		r.IncidentRate, r.TestingRate, r.HospitalizationRate, r.CaseFatalityRatio,
		r.NewConfirmed, r.NewDeaths, r.NewRecovered, r.NewActive,
		r.NewConfirmedMA7, r.NewDeathsMA7, r.NewRecoveredMA7, r.NewActiveMA7,
	}
}

var reportColumns = []string{
	"variant", "date", "fips", "admin2", "province_state", "country_region",
	"last_update", "lat", "long", "confirmed", "deaths", "recovered", "active",
	"combined_key", "incident_rate", "total_test_results", "people_hospitalized",
	"case_fatality_ratio", "testing_rate", "hospitalization_rate",
}

func reportArgs(variant string, r model.Report) []any {
	return []any{
		variant, r.Date.String(), r.FIPS, r.Admin2, r.ProvinceState, r.CountryRegion,
		r.LastUpdate, r.Lat, r.Long, r.Confirmed, r.Deaths, r.Recovered, r.Active,
		r.CombinedKey, r.IncidentRate, r.TotalTestResults, r.PeopleHospitalized,
		r.CaseFatalityRatio, r.TestingRate, r.HospitalizationRate,
	}
}
