package transform

import (
	"fmt"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// PeriodLabel formats "<month-number>/<year>". Unknown months get "?".
func PeriodLabel(month string, year int) (string, bool) {
	n, ok := MonthNumber(month)
	if !ok {
		return fmt.Sprintf("?/%d", year), false
	}
	return fmt.Sprintf("%d/%d", n, year), true
}

// LabelPeriods fills Period on every record and reports unknown months.
func LabelPeriods(records []models.CanonicalRecord) []models.Rejection {
	var warnings []models.Rejection
	for i := range records {
		label, ok := PeriodLabel(records[i].Month, records[i].Year)
		records[i].Period = label
		if !ok {
			warnings = append(warnings, models.Rejection{
				Row: i, Column: models.ColMonth, Value: records[i].Month, Reason: models.RejectUnknownMonth,
			})
		}
	}
	return warnings
}
