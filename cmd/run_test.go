package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/covidsync/internal/acquire"
	"github.com/sells-group/covidsync/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	done := now.Add(2 * time.Minute)
	runs := []*model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Variant:     "us",
			Status:      model.RunStatusComplete,
			StartedAt:   now,
			CompletedAt: &done,
			Result:      &model.RunResult{FilesDownloaded: 412, FilesMissing: 3, FilesProcessed: 412, RowsNormalized: 24000},
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Variant:   "global",
			Status:    model.RunStatusFailed,
			StartedAt: now.Add(-time.Hour),
			Error:     "etl: load global: normalize: no snapshot could be processed",
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "VARIANT")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "2m0s")
	assert.Contains(t, out, "24000")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2025-06-15 10:30")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatSyncResults(t *testing.T) {
	var buf bytes.Buffer
	formatSyncResults(&buf, []string{"us"}, map[string]*acquire.Result{
		"us": {Requested: 10, Downloaded: 7, Existing: 2, Missing: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "DOWNLOADED")
	assert.Contains(t, out, "us")
	assert.Contains(t, out, "10")
}
