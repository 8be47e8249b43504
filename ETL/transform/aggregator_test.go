package transform

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

func rawRecord(store, employee string) models.RawRecord {
	return models.RawRecord{
		Store:     str(store),
		Zone:      str("NORTE"),
		Latitude:  num(4.1),
		Longitude: num(-74.0),
		Month:     "ENERO",
		Year:      2026,
		Employee:  str(employee),
	}
}

func TestAggregateRaw_CountsDistinctEmployees(t *testing.T) {
	records := []models.RawRecord{
		rawRecord("S1", "E1"),
		rawRecord("S1", "E1"),
		rawRecord("S1", "E2"),
	}

	out := AggregateRaw(records)

	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].TotalActive)
}

func TestAggregateRaw_MissingDimensionIsItsOwnGroup(t *testing.T) {
	withZone := rawRecord("S1", "E1")
	withoutZone := rawRecord("S1", "E2")
	withoutZone.Zone = sql.NullString{}

	out := AggregateRaw([]models.RawRecord{withoutZone, withZone})

	require.Len(t, out, 2)
	assert.Equal(t, "NORTE", out[0].Zone.String)
	assert.False(t, out[1].Zone.Valid)
	assert.Equal(t, 1, out[0].TotalActive)
	assert.Equal(t, 1, out[1].TotalActive)
}

func TestAggregateRaw_SortedByStore(t *testing.T) {
	noStore := rawRecord("", "E9")
	noStore.Store = sql.NullString{}

	out := AggregateRaw([]models.RawRecord{
		rawRecord("S2", "E1"), noStore, rawRecord("S1", "E2"),
	})

	require.Len(t, out, 3)
	assert.Equal(t, []string{"S1", "S2", ""}, stores(out))
	assert.False(t, out[2].Store.Valid)
}

func TestAggregateRaw_NullEmployeesAreNotCounted(t *testing.T) {
	a := rawRecord("S1", "E1")
	b := rawRecord("S1", "")
	b.Employee = sql.NullString{}

	out := AggregateRaw([]models.RawRecord{a, b})

	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].TotalActive)
}

func TestPassThrough_KeepsHeadcountAndOrder(t *testing.T) {
	a := rawRecord("S2", "")
	a.Headcount = 10
	b := rawRecord("S1", "")
	b.Headcount = 3

	out := PassThrough([]models.RawRecord{a, b})

	assert.Equal(t, []string{"S2", "S1"}, stores(out))
	assert.Equal(t, 10, out[0].TotalActive)
	assert.Equal(t, 3, out[1].TotalActive)
}

func TestFilterPeriod(t *testing.T) {
	feb := rawRecord("S2", "E2")
	feb.Month = "FEBRERO"
	lastYear := rawRecord("S3", "E3")
	lastYear.Year = 2025
	records := []models.RawRecord{rawRecord("S1", "E1"), feb, lastYear}

	out := FilterPeriod(records, " enero ", 2026)
	require.Len(t, out, 1)
	assert.Equal(t, "S1", out[0].Store.String)

	none := FilterPeriod(records, "MARZO", 2026)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPeriodLabel(t *testing.T) {
	label, ok := PeriodLabel("MARZO", 2026)
	assert.True(t, ok)
	assert.Equal(t, "3/2026", label)

	label, ok = PeriodLabel("DICIEMBRE", 2025)
	assert.True(t, ok)
	assert.Equal(t, "12/2025", label)

	label, ok = PeriodLabel("MARZ0", 2026)
	assert.False(t, ok)
	assert.Equal(t, "?/2026", label)
}

func TestLabelPeriods_UnknownMonthIsKeptWithWarning(t *testing.T) {
	records := []models.CanonicalRecord{
		{Store: str("S1"), Month: "ENERO", Year: 2026},
		{Store: str("S2"), Month: "PRIMAVERA", Year: 2026},
	}

	warnings := LabelPeriods(records)

	assert.Equal(t, "1/2026", records[0].Period)
	assert.Equal(t, "?/2026", records[1].Period)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.Rejection{
		Row: 1, Column: models.ColMonth, Value: "PRIMAVERA", Reason: models.RejectUnknownMonth,
	}, warnings[0])
}

func TestFilterLocated(t *testing.T) {
	records := []models.CanonicalRecord{
		{Store: str("S1"), Latitude: num(4.1), Longitude: num(-74.0), TotalActive: 2},
		{Store: str("S2"), Latitude: num(4.2), TotalActive: 5},
		{Store: str("S3"), Longitude: num(-74.2), TotalActive: 1},
		{Store: str("S4"), TotalActive: 1},
	}

	located, rejections := FilterLocated(records)

	assert.Equal(t, []string{"S1"}, stores(located))
	require.Len(t, rejections, 3)
	assert.Equal(t, models.RejectMissingLongitude, rejections[0].Reason)
	assert.Equal(t, "S2", rejections[0].Value)
	assert.Equal(t, models.RejectMissingLatitude, rejections[1].Reason)
	assert.Equal(t, models.RejectMissingLatitude, rejections[2].Reason)
	assert.Len(t, records, 4, "input must not change")
}
