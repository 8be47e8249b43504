package load

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
)

func sampleTrend() analytics.Trend {
	return analytics.Trend{
		Year: 2026,
		Fit:  &analytics.RegressionResult{A: 2, B: 10, R: 0.9, R2: 0.81},
		Forecasts: []analytics.ForecastPoint{
			{Period: "1/2027", ForecastValue: 36, CILower: 30, CIUpper: 42},
			{Period: "2/2027", ForecastValue: 38, CILower: 31, CIUpper: 45},
		},
		Reliable: true,
	}
}

func TestForecastRepository_SaveTrend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM headcount_forecast WHERE anio = ?")).
		WithArgs(2026).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO headcount_forecast"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_forecast")).
		WithArgs("run-1", 2026, 2.0, 10.0, 0.9, 0.81, true, "1/2027", 36.0, 30.0, 42.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_forecast")).
		WithArgs("run-1", 2026, 2.0, 10.0, 0.9, 0.81, true, "2/2027", 38.0, 31.0, 45.0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	saved, err := repo.SaveTrend(context.Background(), "run-1", sampleTrend())
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepository_SaveTrendRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM headcount_forecast")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO headcount_forecast"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_forecast")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = repo.SaveTrend(context.Background(), "run-1", sampleTrend())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/2027")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepository_SaveTrendWithoutFit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	saved, err := NewForecastRepository(db).SaveTrend(context.Background(), "run-1", analytics.Trend{Year: 2026})
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastRepository_GetForecasts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"fecha", "forecast_value", "ci_lower", "ci_upper"}).
		AddRow("1/2027", 36.0, 30.0, 42.0).
		AddRow("2/2027", 38.0, 31.0, 45.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM headcount_forecast")).
		WithArgs(2026).
		WillReturnRows(rows)

	forecasts, err := NewForecastRepository(db).GetForecasts(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, forecasts, 2)
	assert.Equal(t, "2/2027", forecasts[1].Period)
	assert.InDelta(t, 45.0, forecasts[1].CIUpper, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
