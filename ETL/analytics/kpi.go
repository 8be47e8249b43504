package analytics

import (
	"slices"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// KPIs are the headline indicators of a filtered table compared to the
// unfiltered table of the same period.
type KPIs struct {
	Stores           int        `json:"tiendas"`
	StoreCoveragePct float64    `json:"cobertura_pct"`
	TotalActive      int        `json:"total_activos"`
	TotalActivePct   float64    `json:"total_activos_pct"`
	MeanPerRow       float64    `json:"promedio"`
	Median           float64    `json:"mediana"`
	MeanVsMedianPct  float64    `json:"promedio_vs_mediana_pct"`
	LeadingZone      *Breakdown `json:"zona_lider,omitempty"`
}

// ComputeKPIs derives the indicators. Ratios divide by at least one so an
// empty baseline yields zero instead of NaN.
func ComputeKPIs(filtered, all []models.CanonicalRecord) KPIs {
	summary := Summarize(filtered)
	stores := distinctStores(filtered)
	totalAll := 0
	for _, r := range all {
		totalAll += r.TotalActive
	}

	k := KPIs{
		Stores:           stores,
		StoreCoveragePct: pct(float64(stores), float64(distinctStores(all))),
		TotalActive:      summary.Sum,
		TotalActivePct:   pct(float64(summary.Sum), float64(totalAll)),
		MeanPerRow:       summary.Mean,
		Median:           summary.Median,
		MeanVsMedianPct:  pct(summary.Mean-summary.Median, summary.Median),
	}

	if zones := ByZone(filtered); len(zones) > 0 {
		leader := zones[0]
		k.LeadingZone = &leader
	}
	return k
}

func pct(part, whole float64) float64 {
	return part / max(whole, 1) * 100
}

func distinctStores(records []models.CanonicalRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.Store.Valid {
			seen[r.Store.String] = struct{}{}
		}
	}
	return len(seen)
}

// MapCenter returns the mean position of the located rows
func MapCenter(located []models.CanonicalRecord) (lat, lon float64, ok bool) {
	n := 0
	for _, r := range located {
		if !r.Located() {
			continue
		}
		lat += r.Latitude.Float64
		lon += r.Longitude.Float64
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lat / float64(n), lon / float64(n), true
}

// Sortable table columns
const (
	SortByTotalActive = "total_activos"
	SortByStore       = "almacen"
	SortByZone        = "zona"
	SortByManager     = "gestor"
)

// SortRecords returns a sorted copy of the table. Missing values sort last
// in both directions; unknown columns sort by headcount.
func SortRecords(records []models.CanonicalRecord, by string, ascending bool) []models.CanonicalRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.CanonicalRecord) int {
		var c int
		switch by {
		case SortByStore:
			c = compareDim(a.Store.String, a.Store.Valid, b.Store.String, b.Store.Valid, ascending)
		case SortByZone:
			c = compareDim(a.Zone.String, a.Zone.Valid, b.Zone.String, b.Zone.Valid, ascending)
		case SortByManager:
			c = compareDim(a.Manager.String, a.Manager.Valid, b.Manager.String, b.Manager.Valid, ascending)
		default:
			c = a.TotalActive - b.TotalActive
			if !ascending {
				c = -c
			}
		}
		return c
	})
	return out
}

func compareDim(a string, aValid bool, b string, bValid bool, ascending bool) int {
	switch {
	case !aValid && !bValid:
		return 0
	case !aValid:
		return 1
	case !bValid:
		return -1
	}
	switch {
	case a == b:
		return 0
	case (a < b) == ascending:
		return -1
	default:
		return 1
	}
}
