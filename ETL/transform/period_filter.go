package transform

import (
	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// FilterPeriod keeps the records of one month/year. No match is not an error.
func FilterPeriod(records []models.RawRecord, month string, year int) []models.RawRecord {
	month = NormalizeText(month)
	out := make([]models.RawRecord, 0)
	for _, r := range records {
		if r.Month == month && r.Year == year {
			out = append(out, r)
		}
	}
	return out
}
