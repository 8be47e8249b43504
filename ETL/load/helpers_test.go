package load

import (
	"database/sql"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

func str(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func coord(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}

func sampleResult() *models.Result {
	located := models.CanonicalRecord{
		Store: str("A1"), JobTitle: str("CAJERO"), CostCenter: str("100"), Manager: str("G1"),
		StoreType: str("T1"), Zone: str("NORTE"), Longitude: coord(-74.05), Latitude: coord(4.6),
		Month: "MARZO", Year: 2026, TotalActive: 2, Period: "3/2026",
	}
	unlocated := models.CanonicalRecord{
		Store: str("B2"), JobTitle: str("ASESOR"), Zone: str("SUR"),
		Month: "MARZO", Year: 2026, TotalActive: 5, Period: "3/2026",
	}
	return &models.Result{
		Period:  models.Period{Month: "MARZO", Year: 2026},
		Kind:    models.SourceRaw,
		Records: []models.CanonicalRecord{located, unlocated},
		Located: []models.CanonicalRecord{located},
		Rejections: []models.Rejection{
			{Row: 1, Column: models.ColLatitude, Reason: models.RejectMissingLatitude},
			{Row: 7, Column: models.ColYear, Value: "x", Reason: models.RejectInvalidYear},
		},
	}
}
