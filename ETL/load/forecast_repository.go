package load

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
)

// ForecastRepository stores the yearly headcount trend and its forecasts
type ForecastRepository struct {
	db *sql.DB
}

// NewForecastRepository creates a repository over the analytics database
func NewForecastRepository(db *sql.DB) *ForecastRepository {
	return &ForecastRepository{
		db: db,
	}
}

// EnsureTableExists creates headcount_forecast if needed
func (r *ForecastRepository) EnsureTableExists(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS headcount_forecast (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		anio INT NOT NULL,
		a DOUBLE NOT NULL,
		b DOUBLE NOT NULL,
		r DOUBLE NOT NULL,
		r2 DOUBLE NOT NULL,
		reliable BOOLEAN NOT NULL,
		fecha VARCHAR(16) NOT NULL,
		forecast_value DOUBLE NOT NULL,
		ci_lower DOUBLE NOT NULL,
		ci_upper DOUBLE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_anio (anio)
	);`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating headcount_forecast table: %w", err)
	}
	return nil
}

// SaveTrend replaces the stored forecasts of trend.Year in one transaction.
// A trend without a fit stores nothing.
func (r *ForecastRepository) SaveTrend(ctx context.Context, runID string, trend analytics.Trend) (int, error) {
	if trend.Fit == nil {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM headcount_forecast WHERE anio = ?", trend.Year); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("clearing forecasts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO headcount_forecast
		(run_id, anio, a, b, r, r2, reliable, fecha, forecast_value, ci_lower, ci_upper)
	VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing forecast insert: %w", err)
	}
	defer stmt.Close()

	fit := trend.Fit
	for _, forecast := range trend.Forecasts {
		_, err := stmt.ExecContext(ctx,
			runID,
			trend.Year,
			fit.A,
			fit.B,
			fit.R,
			fit.R2,
			trend.Reliable,
			forecast.Period,
			forecast.ForecastValue,
			forecast.CILower,
			forecast.CIUpper,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("storing forecast %s: %w", forecast.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing forecasts: %w", err)
	}
	return len(trend.Forecasts), nil
}

// GetForecasts returns the stored forecasts of a year in period order
func (r *ForecastRepository) GetForecasts(ctx context.Context, year int) ([]analytics.ForecastPoint, error) {
	query := `
	SELECT fecha, forecast_value, ci_lower, ci_upper
	FROM headcount_forecast
	WHERE anio = ?
	ORDER BY id;`

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("querying forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := []analytics.ForecastPoint{}
	for rows.Next() {
		var f analytics.ForecastPoint
		if err := rows.Scan(&f.Period, &f.ForecastValue, &f.CILower, &f.CIUpper); err != nil {
			return nil, fmt.Errorf("reading forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating forecasts: %w", err)
	}
	return forecasts, nil
}
