package ingest

import "sync"

// Status values used across RunResult and FileResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
	StatusSkipped    = "skipped"
)

// RunResult is the aggregate result of a full ingest run.
// sync.Mutex is embedded so the coordinator can write file results
// concurrently from multiple goroutines without external locking.
// Callers must hold the mutex before marshalling while a run is active.
type RunResult struct {
	sync.Mutex
	Status       string                `json:"status"` // "ok", "error", "in-progress"
	RowsImported int64                 `json:"rows_imported"`
	Files        map[string]FileResult `json:"files"`
}

// FileResult is the outcome of ingesting a single bulletin file.
type FileResult struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status"` // "ok", "error", "skipped"
	Rows   int64  `json:"rows"`
	Error  string `json:"error,omitempty"`
}
