package load

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

type fakeRunLog struct {
	created   []models.Period
	succeeded []int
	failed    []string
}

func (f *fakeRunLog) CreateETLLogTable(context.Context) error { return nil }

func (f *fakeRunLog) CreateLogEntry(_ context.Context, _ string, _ time.Time, period models.Period) (int, error) {
	f.created = append(f.created, period)
	return len(f.created), nil
}

func (f *fakeRunLog) UpdateLogEntrySuccess(_ context.Context, _ int, _ time.Time, rowsExtracted, recordsLoaded, rowsRejected int) error {
	f.succeeded = append(f.succeeded, rowsExtracted, recordsLoaded, rowsRejected)
	return nil
}

func (f *fakeRunLog) UpdateLogEntryFailure(_ context.Context, _ int, _ time.Time, errorMessage string) error {
	f.failed = append(f.failed, errorMessage)
	return nil
}

func (f *fakeRunLog) GetLastSuccessfulRun(context.Context) (*models.ETLRunLog, error) {
	return nil, nil
}

func TestLoadManager_RecordsSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runLog := &fakeRunLog{}
	manager := NewLoadManagerWith(NewSnapshotLoader(db, nil), runLog, nil)
	result := sampleResult()
	result.Rejections = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM headcount_snapshot")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO headcount_snapshot"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_snapshot")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_snapshot")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM headcount_rejections")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, manager.Load(context.Background(), "run-1", time.Now(), 40, result))
	assert.Equal(t, []models.Period{result.Period}, runLog.created)
	assert.Equal(t, []int{40, 2, 0}, runLog.succeeded)
	assert.Empty(t, runLog.failed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadManager_RecordsFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runLog := &fakeRunLog{}
	manager := NewLoadManagerWith(NewSnapshotLoader(db, nil), runLog, nil)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = manager.Load(context.Background(), "run-2", time.Now(), 40, sampleResult())
	require.Error(t, err)
	assert.Empty(t, runLog.succeeded)
	require.Len(t, runLog.failed, 1)
	assert.Contains(t, runLog.failed[0], "too many connections")

	require.NoError(t, manager.RecordFailure(context.Background(), "run-3", time.Now(), models.Period{Month: "ABRIL", Year: 2026}, errors.New("source missing")))
	assert.Equal(t, "source missing", runLog.failed[1])
}

func TestLoadManager_SaveTrend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	manager := NewLoadManager(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM headcount_forecast")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO headcount_forecast"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_forecast")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO headcount_forecast")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, manager.SaveTrend(context.Background(), "run-4", sampleTrend()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadManager_SaveTrendWithoutStorage(t *testing.T) {
	manager := NewLoadManagerWith(nil, &fakeRunLog{}, nil)

	assert.Error(t, manager.SaveTrend(context.Background(), "run-5", sampleTrend()))
	_, err := manager.StoredForecasts(context.Background(), 2026)
	assert.Error(t, err)
}
