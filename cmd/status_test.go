package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/covidsync/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	later := now.Add(30 * time.Second)
	latest := now.Add(time.Hour + 90*time.Second)

	runs := []model.Run{
		{Variant: "us", Status: model.RunStatusComplete, StartedAt: now, CompletedAt: &later,
			Result: &model.RunResult{FilesDownloaded: 10, FilesMissing: 2}},
		{Variant: "us", Status: model.RunStatusComplete, StartedAt: now.Add(time.Hour), CompletedAt: &latest,
			Result: &model.RunResult{FilesDownloaded: 5}},
		{Variant: "global", Status: model.RunStatusFailed, StartedAt: now},
		{Variant: "global", Status: model.RunStatusRunning, StartedAt: now},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 15, s.Downloaded)
	assert.Equal(t, 2, s.Missing)
	assert.InDelta(t, 60.0, s.AvgDurSecs, 1e-9)
	assert.Equal(t, latest, s.LastOK["us"])
	_, ok := s.LastOK["global"]
	assert.False(t, ok)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "Avg duration:")
	assert.Contains(t, out, "Last success (us):")
	assert.NotContains(t, out, "Last success (global):")
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}
