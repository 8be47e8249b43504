package transform

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// Coerce converts a normalized frame into typed records. It never fails:
// unparseable coordinates become missing, rows with an invalid year (or an
// invalid headcount in a pre-aggregated source) are rejected.
func Coerce(frame *models.Frame, kind models.SourceKind) ([]models.RawRecord, []models.Rejection) {
	records := make([]models.RawRecord, 0, frame.Len())
	var rejections []models.Rejection

	for i := 0; i < frame.Len(); i++ {
		yearCell := frame.Cell(i, models.ColYear)
		year, ok := parseInt(yearCell)
		if !ok {
			rejections = append(rejections, models.Rejection{
				Row: i, Column: models.ColYear, Value: yearCell.String, Reason: models.RejectInvalidYear,
			})
			continue
		}

		rec := models.RawRecord{
			Row:        i,
			Store:      dimension(frame.Cell(i, models.ColStore)),
			JobTitle:   dimension(frame.Cell(i, models.ColJobTitle)),
			CostCenter: dimension(frame.Cell(i, models.ColCostCenter)),
			Manager:    dimension(frame.Cell(i, models.ColManager)),
			StoreType:  dimension(frame.Cell(i, models.ColStoreType)),
			Zone:       dimension(frame.Cell(i, models.ColZone)),
			Longitude:  parseFloat(frame.Cell(i, models.ColLongitude)),
			Latitude:   parseFloat(frame.Cell(i, models.ColLatitude)),
			Month:      NormalizeText(frame.Cell(i, models.ColMonth).String),
			Year:       year,
			Employee:   text(frame.Cell(i, models.ColEmployee)),
		}

		if kind == models.SourcePreAggregated {
			hcCell := frame.Cell(i, models.ColHeadcount)
			headcount, ok := parseInt(hcCell)
			if !ok || headcount < 0 {
				rejections = append(rejections, models.Rejection{
					Row: i, Column: models.ColHeadcount, Value: hcCell.String, Reason: models.RejectInvalidHeadcount,
				})
				continue
			}
			rec.Headcount = headcount
		}

		records = append(records, rec)
	}

	return records, rejections
}

// dimension normalizes a grouping field like the month, so case and
// whitespace variants of one value land in the same group.
func dimension(v sql.NullString) sql.NullString {
	v = text(v)
	if v.Valid {
		v.String = NormalizeText(v.String)
	}
	return v
}

// text trims a field; blank values count as missing.
func text(v sql.NullString) sql.NullString {
	if !v.Valid {
		return v
	}
	s := strings.TrimSpace(v.String)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseFloat(v sql.NullString) sql.NullFloat64 {
	if !v.Valid {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// parseInt accepts integral numbers, including "2026.0".
func parseInt(v sql.NullString) (int, bool) {
	f := parseFloat(v)
	if !f.Valid || f.Float64 != math.Trunc(f.Float64) || math.Abs(f.Float64) > math.MaxInt32 {
		return 0, false
	}
	return int(f.Float64), true
}
