package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidsync/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func runRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "variant", "status", "result", "error", "started_at", "completed_at"})
}

func TestPostgresStore_StartRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO covid.runs`).
		WithArgs(pgxmock.AnyArg(), "us", "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.StartRun(context.Background(), "us")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "us", run.Variant)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE covid.runs SET status = \$1, result = \$2`).
		WithArgs("complete", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteRun(context.Background(), "run-1", &model.RunResult{FilesProcessed: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE covid.runs SET status = \$1, error = \$2`).
		WithArgs("failed", "boom", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FailRun(context.Background(), "missing", "boom")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, variant, status, result, error, started_at, completed_at FROM covid.runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	done := started.Add(time.Minute)
	msg := "normalize: no data files processed"

	mock.ExpectQuery(`SELECT .* FROM covid.runs WHERE variant = \$1 ORDER BY started_at DESC LIMIT \$2`).
		WithArgs("us", 20).
		WillReturnRows(runRows().
			AddRow("b", "us", "complete", []byte(`{"files_processed":2,"series_rows":10}`), (*string)(nil), started, &done).
			AddRow("a", "us", "failed", []byte(nil), &msg, started, (*time.Time)(nil)))

	runs, err := s.ListRuns(context.Background(), RunFilter{Variant: "us"})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Result)
	assert.Equal(t, 2, runs[0].Result.FilesProcessed)
	assert.Equal(t, 10, runs[0].Result.SeriesRows)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, done, *runs[0].CompletedAt)

	assert.Equal(t, model.RunStatusFailed, runs[1].Status)
	assert.Nil(t, runs[1].Result)
	assert.Equal(t, msg, runs[1].Error)
	assert.Nil(t, runs[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE variant = \$1 AND status = \$2 ORDER BY started_at DESC LIMIT \$3`).
		WithArgs("global", "failed", 5).
		WillReturnRows(runRows())

	runs, err := s.ListRuns(context.Background(), RunFilter{Variant: "global", Status: model.RunStatusFailed, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSeries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	d, err := model.ParseDay("2020-05-01")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_covid_series"}, seriesColumns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "covid"."series"`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM "covid"."series"`).WithArgs("us").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	n, err := s.SaveSeries(context.Background(), "us", []model.SeriesRow{{Date: d, Entity: "Ohio", Confirmed: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReports(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	d, err := model.ParseDay("2020-05-01")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM covid.reports WHERE variant = \$1`).
		WithArgs("global").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectCopyFrom(pgx.Identifier{"covid", "reports"}, reportColumns).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := s.SaveReports(context.Background(), "global", []model.Report{
		{Date: d, CountryRegion: "Italy", Confirmed: 1, Active: 1},
		{Date: d, CountryRegion: "Spain", Confirmed: 2, Active: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReports_CopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM covid.reports`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"covid", "reports"}, reportColumns).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err := s.SaveReports(context.Background(), "global", []model.Report{{CountryRegion: "Italy"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy reports for global")
	assert.NoError(t, mock.ExpectationsWereMet())
}
