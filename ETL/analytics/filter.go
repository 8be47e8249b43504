package analytics

import (
	"database/sql"
	"strings"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
)

// Selector values meaning "no restriction"
const (
	AllZones    = "TODAS"
	AllManagers = "TODOS"
	AllTypes    = "TODOS"
)

// DimensionFilter narrows a canonical table after the period has been chosen.
// Empty strings and the "all" selectors disable a dimension; a nil bound
// disables the headcount range on that side.
type DimensionFilter struct {
	Zone      string
	Manager   string
	StoreType string
	MinActive *int
	MaxActive *int
}

// IsZero reports whether the filter keeps every row
func (f DimensionFilter) IsZero() bool {
	return isAll(f.Zone, AllZones) && isAll(f.Manager, AllManagers) &&
		isAll(f.StoreType, AllTypes) && f.MinActive == nil && f.MaxActive == nil
}

// Apply returns the rows that pass every active condition. The result is
// never nil; zero rows is the "no data for these filters" outcome.
func (f DimensionFilter) Apply(records []models.CanonicalRecord) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if !matches(r.Zone, f.Zone, AllZones) ||
			!matches(r.Manager, f.Manager, AllManagers) ||
			!matches(r.StoreType, f.StoreType, AllTypes) {
			continue
		}
		if f.MinActive != nil && r.TotalActive < *f.MinActive {
			continue
		}
		if f.MaxActive != nil && r.TotalActive > *f.MaxActive {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isAll(value, all string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, all)
}

// matches compares a dimension with a selector. Rows with a missing value
// only pass when the dimension is not restricted.
func matches(v sql.NullString, selector, all string) bool {
	if isAll(selector, all) {
		return true
	}
	return v.Valid && v.String == transform.NormalizeText(selector)
}
