package models

import (
	"context"
	"time"
)

// Run log statuses.
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog is one record of a headcount snapshot run
type ETLRunLog struct {
	ID                   int       `json:"id"`
	RunID                string    `json:"run_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	Month                string    `json:"mes"`
	Year                 int       `json:"anio"`
	RowsExtracted        int       `json:"rows_extracted"`
	RecordsLoaded        int       `json:"records_loaded"`
	RowsRejected         int       `json:"rows_rejected"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// ETLLogRepository stores the history of snapshot runs
type ETLLogRepository interface {
	// CreateETLLogTable creates the run log table if needed
	CreateETLLogTable(ctx context.Context) error

	// CreateLogEntry opens a run in the in_progress state
	CreateLogEntry(ctx context.Context, runID string, startTime time.Time, period Period) (int, error)

	// UpdateLogEntrySuccess closes a run as successful
	UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, rowsExtracted, recordsLoaded, rowsRejected int) error

	// UpdateLogEntryFailure closes a run as failed
	UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun returns the latest successful run, or nil when none exists
	GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error)
}
