package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MySQLETLLogRepository is the MySQL implementation of ETLLogRepository
type MySQLETLLogRepository struct {
	db *sql.DB
}

// NewMySQLETLLogRepository creates a new MySQLETLLogRepository
func NewMySQLETLLogRepository(db *sql.DB) *MySQLETLLogRepository {
	return &MySQLETLLogRepository{
		db: db,
	}
}

// CreateETLLogTable creates the etl_run_log table if it does not exist
func (r *MySQLETLLogRepository) CreateETLLogTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		mes VARCHAR(16) NOT NULL,
		anio INT NOT NULL,
		rows_extracted INT DEFAULT 0,
		records_loaded INT DEFAULT 0,
		rows_rejected INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT
	);
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating etl_run_log table: %w", err)
	}

	return nil
}

// CreateLogEntry inserts a run in the in_progress state and returns its id
func (r *MySQLETLLogRepository) CreateLogEntry(ctx context.Context, runID string, startTime time.Time, period Period) (int, error) {
	query := `
	INSERT INTO etl_run_log (run_id, start_time, status, mes, anio)
	VALUES (?, ?, 'in_progress', ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, runID, startTime, period.Month, period.Year)
	if err != nil {
		return 0, fmt.Errorf("creating run log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run log entry id: %w", err)
	}

	return int(id), nil
}

// UpdateLogEntrySuccess marks the run as successful
func (r *MySQLETLLogRepository) UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, rowsExtracted, recordsLoaded, rowsRejected int) error {
	executionTime, err := r.executionSeconds(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		rows_extracted = ?,
		records_loaded = ?,
		rows_rejected = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx, query, endTime, rowsExtracted, recordsLoaded, rowsRejected, executionTime, id)
	if err != nil {
		return fmt.Errorf("updating run log entry %d: %w", id, err)
	}

	return nil
}

// UpdateLogEntryFailure marks the run as failed
func (r *MySQLETLLogRepository) UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionSeconds(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx, query, endTime, errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("updating run log entry %d: %w", id, err)
	}

	return nil
}

// GetLastSuccessfulRun returns the most recent successful run
func (r *MySQLETLLogRepository) GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error) {
	query := `
	SELECT
		id, run_id, start_time, end_time, status, mes, anio,
		rows_extracted, records_loaded, rows_rejected,
		IFNULL(error_message, ''), execution_time_seconds
	FROM etl_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log ETLRunLog
	err := r.db.QueryRowContext(ctx, query).Scan(
		&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status, &log.Month, &log.Year,
		&log.RowsExtracted, &log.RecordsLoaded, &log.RowsRejected,
		&log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last successful run: %w", err)
	}

	return &log, nil
}

func (r *MySQLETLLogRepository) executionSeconds(ctx context.Context, id int, endTime time.Time) (float64, error) {
	var startTime time.Time
	err := r.db.QueryRowContext(ctx, "SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return 0, fmt.Errorf("reading start time of run %d: %w", id, err)
	}
	return endTime.Sub(startTime).Seconds(), nil
}
