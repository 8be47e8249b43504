package analytics

import (
	"database/sql"
	"slices"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// Options lists the selectable filter values for one period
type Options struct {
	Zones      []string `json:"zonas"`
	Managers   []string `json:"gestores"`
	StoreTypes []string `json:"tipos_tienda"`
	MinActive  int      `json:"min_activos"`
	MaxActive  int      `json:"max_activos"`
}

// BuildOptions collects the distinct sorted dimension values and the headcount range
func BuildOptions(records []models.CanonicalRecord) Options {
	zones := make(map[string]struct{})
	managers := make(map[string]struct{})
	types := make(map[string]struct{})

	opts := Options{}
	for i, r := range records {
		addValue(zones, r.Zone)
		addValue(managers, r.Manager)
		addValue(types, r.StoreType)
		if i == 0 || r.TotalActive < opts.MinActive {
			opts.MinActive = r.TotalActive
		}
		if i == 0 || r.TotalActive > opts.MaxActive {
			opts.MaxActive = r.TotalActive
		}
	}

	opts.Zones = sortedKeys(zones)
	opts.Managers = sortedKeys(managers)
	opts.StoreTypes = sortedKeys(types)
	return opts
}

// AvailableYears returns the distinct years of a source, newest first
func AvailableYears(source *models.Source) []int {
	if source == nil {
		return []int{}
	}
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, r := range source.Records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

func addValue(set map[string]struct{}, v sql.NullString) {
	if v.Valid {
		set[v.String] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
