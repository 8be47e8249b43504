package transform

import (
	"cmp"
	"database/sql"
	"slices"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// groupKey holds every group column; missing values are part of the key.
type groupKey struct {
	store, jobTitle, costCenter, manager, storeType, zone sql.NullString
	longitude, latitude                                  sql.NullFloat64
	month                                                string
	year                                                 int
}

func keyOf(r models.RawRecord) groupKey {
	return groupKey{
		store:      r.Store,
		jobTitle:   r.JobTitle,
		costCenter: r.CostCenter,
		manager:    r.Manager,
		storeType:  r.StoreType,
		zone:       r.Zone,
		longitude:  r.Longitude,
		latitude:   r.Latitude,
		month:      r.Month,
		year:       r.Year,
	}
}

// AggregateRaw groups raw rows and counts distinct employee ids per group.
// Output is sorted by the group columns, missing values last.
func AggregateRaw(records []models.RawRecord) []models.CanonicalRecord {
	employees := make(map[groupKey]map[string]struct{})
	order := make([]groupKey, 0)

	for _, r := range records {
		k := keyOf(r)
		set, ok := employees[k]
		if !ok {
			set = make(map[string]struct{})
			employees[k] = set
			order = append(order, k)
		}
		if r.Employee.Valid {
			set[r.Employee.String] = struct{}{}
		}
	}

	slices.SortStableFunc(order, compareKeys)

	out := make([]models.CanonicalRecord, 0, len(order))
	for _, k := range order {
		out = append(out, models.CanonicalRecord{
			Store:       k.store,
			JobTitle:    k.jobTitle,
			CostCenter:  k.costCenter,
			Manager:     k.manager,
			StoreType:   k.storeType,
			Zone:        k.zone,
			Longitude:   k.longitude,
			Latitude:    k.latitude,
			Month:       k.month,
			Year:        k.year,
			TotalActive: len(employees[k]),
		})
	}
	return out
}

// PassThrough turns pre-aggregated rows into canonical records as they are.
func PassThrough(records []models.RawRecord) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.CanonicalRecord{
			Store:       r.Store,
			JobTitle:    r.JobTitle,
			CostCenter:  r.CostCenter,
			Manager:     r.Manager,
			StoreType:   r.StoreType,
			Zone:        r.Zone,
			Longitude:   r.Longitude,
			Latitude:    r.Latitude,
			Month:       r.Month,
			Year:        r.Year,
			TotalActive: r.Headcount,
		})
	}
	return out
}

func compareKeys(a, b groupKey) int {
	if c := compareNullString(a.store, b.store); c != 0 {
		return c
	}
	if c := compareNullString(a.jobTitle, b.jobTitle); c != 0 {
		return c
	}
	if c := compareNullString(a.costCenter, b.costCenter); c != 0 {
		return c
	}
	if c := compareNullString(a.manager, b.manager); c != 0 {
		return c
	}
	if c := compareNullString(a.storeType, b.storeType); c != 0 {
		return c
	}
	if c := compareNullString(a.zone, b.zone); c != 0 {
		return c
	}
	if c := compareNullFloat(a.longitude, b.longitude); c != 0 {
		return c
	}
	if c := compareNullFloat(a.latitude, b.latitude); c != 0 {
		return c
	}
	if c := cmp.Compare(a.month, b.month); c != 0 {
		return c
	}
	return cmp.Compare(a.year, b.year)
}

func compareNullString(a, b sql.NullString) int {
	switch {
	case a.Valid && b.Valid:
		return cmp.Compare(a.String, b.String)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	}
	return 0
}

func compareNullFloat(a, b sql.NullFloat64) int {
	switch {
	case a.Valid && b.Valid:
		return cmp.Compare(a.Float64, b.Float64)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	}
	return 0
}
