package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/fetcher"
	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/rawstore"
	"github.com/sells-group/covidsync/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func day(t *testing.T, s string) model.Day {
	t.Helper()
	d, err := model.ParseDay(s)
	require.NoError(t, err)
	return d
}

func newServer(t *testing.T, published map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/reports/")
		body, ok := published[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxAttempts: 1, RatePerSec: 1000})
}

func TestDownloader_SkipsMissingDays(t *testing.T) {
	srv := newServer(t, map[string]string{
		"01-22-2020.csv": "Province/State,Country/Region,Confirmed\n,China,1\n",
		"01-24-2020.csv": "Province/State,Country/Region,Confirmed\n,China,3\n",
	})
	v := source.Global(srv.URL+"/reports", day(t, "2020-01-22"))
	store := rawstore.New(filepath.Join(t.TempDir(), "raw", "global"))

	res, err := New(newFetcher()).Run(context.Background(), v, store, day(t, "2020-01-22"), day(t, "2020-01-24"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, 0, res.Failed)
	require.Len(t, res.Absent, 1)
	assert.Equal(t, "2020-01-23", res.Absent[0].String())

	assert.True(t, store.Has(day(t, "2020-01-22")))
	assert.False(t, store.Has(day(t, "2020-01-23")))
	assert.True(t, store.Has(day(t, "2020-01-24")))

	data, err := os.ReadFile(store.Path(day(t, "2020-01-24")))
	require.NoError(t, err)
	assert.Equal(t, "Province/State,Country/Region,Confirmed\n,China,3\n", string(data), "bytes stored verbatim")
}

func TestDownloader_ServerErrorIsSkipped(t *testing.T) {
	srv := newServer(t, map[string]string{
		"04-12-2020.csv": "500",
		"04-13-2020.csv": "Province_State,Confirmed\nOhio,1\n",
	})
	v := source.US(srv.URL+"/reports", day(t, "2020-04-12"))
	store := rawstore.New(t.TempDir())

	res, err := New(newFetcher()).Run(context.Background(), v, store, day(t, "2020-04-12"), day(t, "2020-04-13"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, store.Has(day(t, "2020-04-12")))
}

func TestDownloader_Rerun_Overwrites(t *testing.T) {
	body := "Province_State,Confirmed\nOhio,1\n"
	srv := newServer(t, map[string]string{"04-12-2020.csv": body})
	v := source.US(srv.URL+"/reports", day(t, "2020-04-12"))
	store := rawstore.New(t.TempDir())
	d := New(newFetcher())

	for range 2 {
		res, err := d.Run(context.Background(), v, store, day(t, "2020-04-12"), day(t, "2020-04-12"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Downloaded)
	}

	snaps, err := store.List()
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestDownloader_EmptyRange(t *testing.T) {
	v := source.US("http://127.0.0.1:0", day(t, "2020-04-12"))
	store := rawstore.New(t.TempDir())

	res, err := New(newFetcher()).Run(context.Background(), v, store, day(t, "2020-04-13"), day(t, "2020-04-12"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Requested)
}

func TestDownloader_ContextCancelled(t *testing.T) {
	srv := newServer(t, map[string]string{})
	v := source.US(srv.URL+"/reports", day(t, "2020-04-12"))
	store := rawstore.New(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFetcher()).Run(ctx, v, store, day(t, "2020-04-12"), day(t, "2020-04-20"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloader_SkipExisting(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("Province_State,Confirmed\nOhio,2\n")) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	v := source.US(srv.URL, day(t, "2020-04-12"))
	store := rawstore.New(t.TempDir())
	require.NoError(t, store.Ensure())
	require.NoError(t, os.WriteFile(store.Path(day(t, "2020-04-12")), []byte("old"), 0o644))

	d := New(newFetcher())
	d.SkipExisting = true
	res, err := d.Run(context.Background(), v, store, day(t, "2020-04-12"), day(t, "2020-04-13"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 1, hits)

	data, err := os.ReadFile(store.Path(day(t, "2020-04-12")))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
