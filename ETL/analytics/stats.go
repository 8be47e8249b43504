package analytics

import (
	"math"
	"slices"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// Summary holds descriptive statistics of total_active over table rows
type Summary struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Max    int     `json:"max"`
	Sum    int     `json:"sum"`
	StdDev float64 `json:"std_dev"` // sample standard deviation, 0 below two rows
}

// HistogramBin is one equal-width bucket of total_active values
type HistogramBin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Summarize computes the statistics of the headcount column
func Summarize(records []models.CanonicalRecord) Summary {
	values := headcounts(records)
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	slices.Sort(values)
	s.Min = values[0]
	s.Max = values[len(values)-1]
	for _, v := range values {
		s.Sum += v
	}
	s.Mean = float64(s.Sum) / float64(len(values))
	s.Median = median(values)

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := float64(v) - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(values)-1))
	}
	return s
}

// Histogram splits the headcount range into bins equal-width buckets.
// The last bucket includes its upper edge.
func Histogram(records []models.CanonicalRecord, bins int) []HistogramBin {
	values := headcounts(records)
	if len(values) == 0 || bins <= 0 {
		return []HistogramBin{}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []HistogramBin{{From: float64(lo), To: float64(hi), Count: len(values)}}
	}

	width := float64(hi-lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].From = float64(lo) + float64(i)*width
		out[i].To = float64(lo) + float64(i+1)*width
	}
	for _, v := range values {
		idx := int(float64(v-lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

func headcounts(records []models.CanonicalRecord) []int {
	values := make([]int, len(records))
	for i, r := range records {
		values[i] = r.TotalActive
	}
	return values
}

// median expects sorted values
func median(sorted []int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
