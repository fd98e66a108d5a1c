package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidsync/internal/config"
	"github.com/sells-group/covidsync/internal/model"
)

func TestOpen_None(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		s, err := Open(context.Background(), config.StoreConfig{Driver: driver})
		require.NoError(t, err)
		assert.IsType(t, Nop{}, s)
	}
}

func TestOpen_SQLiteCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")
	s, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	run, err := s.StartRun(context.Background(), "us")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_PostgresBadURL(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres", DatabaseURL: "://not a url"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}

	run, err := s.StartRun(ctx, "global")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, s.CompleteRun(ctx, run.ID, &model.RunResult{}))
	assert.NoError(t, s.FailRun(ctx, run.ID, "x"))

	_, err = s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	n, err := s.SaveSeries(ctx, "global", []model.SeriesRow{{}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Migrate(ctx))
	assert.NoError(t, s.Close())
}

func TestListLimit(t *testing.T) {
	assert.Equal(t, 20, listLimit(RunFilter{}))
	assert.Equal(t, 5, listLimit(RunFilter{Limit: 5}))
}

func TestColumnsMatchArgs(t *testing.T) {
	assert.Len(t, seriesArgs("us", model.SeriesRow{}), len(seriesColumns))
	assert.Len(t, reportArgs("us", model.Report{}), len(reportColumns))
}
