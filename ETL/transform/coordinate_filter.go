package transform

import (
	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// FilterLocated returns the records that can be placed on a map.
func FilterLocated(records []models.CanonicalRecord) ([]models.CanonicalRecord, []models.Rejection) {
	located := make([]models.CanonicalRecord, 0, len(records))
	var rejections []models.Rejection
	for i, r := range records {
		switch {
		case !r.Latitude.Valid:
			rejections = append(rejections, models.Rejection{
				Row: i, Column: models.ColLatitude, Value: r.Store.String, Reason: models.RejectMissingLatitude,
			})
		case !r.Longitude.Valid:
			rejections = append(rejections, models.Rejection{
				Row: i, Column: models.ColLongitude, Value: r.Store.String, Reason: models.RejectMissingLongitude,
			})
		default:
			located = append(located, r)
		}
	}
	return located, rejections
}
