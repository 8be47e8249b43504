package analytics

import (
	"cmp"
	"database/sql"
	"math"
	"slices"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// Breakdown is the headcount of one dimension value
type Breakdown struct {
	Key         string `json:"key"`
	TotalActive int    `json:"total_activos"`
}

// ManagerZone is the headcount of one manager inside one zone
type ManagerZone struct {
	Manager     string `json:"gestor"`
	Zone        string `json:"zona"`
	TotalActive int    `json:"total_activos"`
}

// StoreRank places a store inside the headcount distribution of the period
type StoreRank struct {
	Store       string  `json:"almacen"`
	TotalActive int     `json:"total_activos"`
	Percentile  float64 `json:"percentile"`
	Category    string  `json:"category"`
}

// Rank categories
const (
	CategoryHigh   = "high"
	CategoryMedium = "medium"
	CategoryLow    = "low"
)

// ByZone sums headcount per zone, largest first. Rows without a zone are skipped.
func ByZone(records []models.CanonicalRecord) []Breakdown {
	out := sumBy(records, func(r models.CanonicalRecord) sql.NullString { return r.Zone })
	slices.SortStableFunc(out, func(a, b Breakdown) int {
		return cmp.Compare(b.TotalActive, a.TotalActive)
	})
	return out
}

// ByStoreType sums headcount per store type, ordered by type name
func ByStoreType(records []models.CanonicalRecord) []Breakdown {
	return sumBy(records, func(r models.CanonicalRecord) sql.NullString { return r.StoreType })
}

// ByManagerZone sums headcount per (manager, zone), ordered by manager then zone
func ByManagerZone(records []models.CanonicalRecord) []ManagerZone {
	type key struct{ manager, zone string }
	totals := make(map[key]int)
	for _, r := range records {
		if !r.Manager.Valid || !r.Zone.Valid {
			continue
		}
		totals[key{r.Manager.String, r.Zone.String}] += r.TotalActive
	}

	out := make([]ManagerZone, 0, len(totals))
	for k, v := range totals {
		out = append(out, ManagerZone{Manager: k.manager, Zone: k.zone, TotalActive: v})
	}
	slices.SortFunc(out, func(a, b ManagerZone) int {
		if c := cmp.Compare(a.Manager, b.Manager); c != 0 {
			return c
		}
		return cmp.Compare(a.Zone, b.Zone)
	})
	return out
}

// TopStores returns the n rows with the largest headcount, largest first.
// Ties keep table order.
func TopStores(records []models.CanonicalRecord, n int) []models.CanonicalRecord {
	if n <= 0 {
		return []models.CanonicalRecord{}
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.CanonicalRecord) int {
		return cmp.Compare(b.TotalActive, a.TotalActive)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// RankStores sums headcount per store and categorizes each store by its
// percentile: high from 0.9, medium from 0.5, low below.
func RankStores(records []models.CanonicalRecord) []StoreRank {
	totals := sumBy(records, func(r models.CanonicalRecord) sql.NullString { return r.Store })

	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i] = float64(t.TotalActive)
	}
	slices.Sort(values)

	ranks := make([]StoreRank, 0, len(totals))
	for _, t := range totals {
		p := percentile(values, float64(t.TotalActive))
		category := CategoryLow
		if p >= 0.9 {
			category = CategoryHigh
		} else if p >= 0.5 {
			category = CategoryMedium
		}
		ranks = append(ranks, StoreRank{
			Store:       t.Key,
			TotalActive: t.TotalActive,
			Percentile:  RoundToThousandth(p),
			Category:    category,
		})
	}

	slices.SortStableFunc(ranks, func(a, b StoreRank) int {
		return cmp.Compare(b.TotalActive, a.TotalActive)
	})
	return ranks
}

// percentile returns the position of the last value <= v in sorted, scaled to 0..1
func percentile(sorted []float64, v float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return 1
	}
	position := 0
	for i, s := range sorted {
		if s > v {
			break
		}
		position = i
	}
	return float64(position) / float64(len(sorted)-1)
}

func sumBy(records []models.CanonicalRecord, dim func(models.CanonicalRecord) sql.NullString) []Breakdown {
	totals := make(map[string]int)
	for _, r := range records {
		v := dim(r)
		if !v.Valid {
			continue
		}
		totals[v.String] += r.TotalActive
	}
	out := make([]Breakdown, 0, len(totals))
	for k, v := range totals {
		out = append(out, Breakdown{Key: k, TotalActive: v})
	}
	slices.SortFunc(out, func(a, b Breakdown) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// RoundToThousandth rounds to three decimals
func RoundToThousandth(value float64) float64 {
	return math.Round(value*1000) / 1000
}
