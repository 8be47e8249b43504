package load

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// LoadManager runs the load phase and keeps the run log in step with it
type LoadManager struct {
	logger    *utils.ETLLogger
	snapshots *SnapshotLoader
	runLog    models.ETLLogRepository
	forecasts *ForecastRepository
	now       func() time.Time
}

// NewLoadManager creates a new LoadManager over the analytics database
func NewLoadManager(db *sql.DB, logger *utils.ETLLogger) *LoadManager {
	m := NewLoadManagerWith(NewSnapshotLoader(db, logger), models.NewMySQLETLLogRepository(db), logger)
	m.forecasts = NewForecastRepository(db)
	return m
}

// NewLoadManagerWith creates a LoadManager from its parts
func NewLoadManagerWith(snapshots *SnapshotLoader, runLog models.ETLLogRepository, logger *utils.ETLLogger) *LoadManager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &LoadManager{
		logger:    logger,
		snapshots: snapshots,
		runLog:    runLog,
		now:       time.Now,
	}
}

// Prepare creates the snapshot and run log tables
func (m *LoadManager) Prepare(ctx context.Context) error {
	if err := m.snapshots.EnsureTables(ctx); err != nil {
		return err
	}
	if m.forecasts != nil {
		if err := m.forecasts.EnsureTableExists(ctx); err != nil {
			return err
		}
	}
	return m.runLog.CreateETLLogTable(ctx)
}

// SaveTrend stores the forecasts of a yearly trend
func (m *LoadManager) SaveTrend(ctx context.Context, runID string, trend analytics.Trend) error {
	if m.forecasts == nil {
		return fmt.Errorf("forecast storage is not configured")
	}
	saved, err := m.forecasts.SaveTrend(ctx, runID, trend)
	if err != nil {
		return err
	}
	m.logger.Info("Stored %d forecasts for %d (r2 %.3f)", saved, trend.Year, fitR2(trend))
	return nil
}

func fitR2(trend analytics.Trend) float64 {
	if trend.Fit == nil {
		return 0
	}
	return trend.Fit.R2
}

// Load stores a period snapshot and records the run outcome.
// rowsExtracted is the size of the source the result was derived from.
func (m *LoadManager) Load(ctx context.Context, runID string, startTime time.Time, rowsExtracted int, result *models.Result) error {
	if result == nil {
		return fmt.Errorf("load: nil result")
	}
	m.logger.Info("Starting load phase for run %s", runID)

	logID, err := m.runLog.CreateLogEntry(ctx, runID, startTime, result.Period)
	if err != nil {
		return err
	}

	loaded, err := m.snapshots.Load(ctx, runID, result)
	if err != nil {
		m.logger.Error("Load phase failed: %v", err)
		if logErr := m.runLog.UpdateLogEntryFailure(ctx, logID, m.now(), err.Error()); logErr != nil {
			m.logger.Error("Updating run log: %v", logErr)
		}
		return fmt.Errorf("loading snapshot: %w", err)
	}

	if err := m.runLog.UpdateLogEntrySuccess(ctx, logID, m.now(), rowsExtracted, loaded, len(result.Rejections)); err != nil {
		return err
	}
	m.logger.Info("Load phase finished. Duration: %v", m.now().Sub(startTime))
	return nil
}

// RecordFailure logs a run that failed before reaching the load phase
func (m *LoadManager) RecordFailure(ctx context.Context, runID string, startTime time.Time, period models.Period, cause error) error {
	logID, err := m.runLog.CreateLogEntry(ctx, runID, startTime, period)
	if err != nil {
		return err
	}
	return m.runLog.UpdateLogEntryFailure(ctx, logID, m.now(), cause.Error())
}

// StoredForecasts returns the forecasts saved for a year
func (m *LoadManager) StoredForecasts(ctx context.Context, year int) ([]analytics.ForecastPoint, error) {
	if m.forecasts == nil {
		return nil, fmt.Errorf("forecast storage is not configured")
	}
	return m.forecasts.GetForecasts(ctx, year)
}

// LastSuccessfulRun returns the most recent successful run, or nil
func (m *LoadManager) LastSuccessfulRun(ctx context.Context) (*models.ETLRunLog, error) {
	return m.runLog.GetLastSuccessfulRun(ctx)
}
