package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one pipeline execution for one variant.
type Run struct {
	ID          string     `json:"id"`
	Variant     string     `json:"variant"`
	Status      RunStatus  `json:"status"`
	Result      *RunResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunResult holds the counters produced by a completed run.
type RunResult struct {
	FilesDownloaded int `json:"files_downloaded"`
	FilesMissing    int `json:"files_missing"`
	FilesProcessed  int `json:"files_processed"`
	FilesSkipped    int `json:"files_skipped"`
	RowsNormalized  int `json:"rows_normalized"`
	SeriesRows      int `json:"series_rows"`
	Entities        int `json:"entities"`
}
