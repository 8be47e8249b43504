package models

// RejectReason classifies a row-level data defect.
type RejectReason string

const (
	RejectInvalidYear      RejectReason = "invalid_year"
	RejectInvalidHeadcount RejectReason = "invalid_headcount"
	RejectMissingLatitude  RejectReason = "missing_latitude"
	RejectMissingLongitude RejectReason = "missing_longitude"
	// RejectUnknownMonth is a warning: the row is kept with a placeholder label.
	RejectUnknownMonth RejectReason = "unknown_month"
)

// Rejection records why a row was dropped or flagged.
// Row is the source row index for ingestion defects and the position in
// Result.Records for defects found after aggregation.
type Rejection struct {
	Row    int          `json:"row"`
	Column string       `json:"column"`
	Value  string       `json:"value,omitempty"`
	Reason RejectReason `json:"reason"`
}

// Result is the pipeline output for one period.
type Result struct {
	Period     Period            `json:"period"`
	Kind       SourceKind        `json:"kind"`
	Records    []CanonicalRecord `json:"records"`
	Located    []CanonicalRecord `json:"located"`
	Rejections []Rejection       `json:"rejections"`
}

// Empty reports the "no data for this period" outcome.
func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// DroppedByReason counts rejections per reason.
func (r *Result) DroppedByReason() map[RejectReason]int {
	counts := make(map[RejectReason]int)
	if r == nil {
		return counts
	}
	for _, rej := range r.Rejections {
		counts[rej.Reason]++
	}
	return counts
}

// TotalActive sums the headcount over all records.
func (r *Result) TotalActive() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, rec := range r.Records {
		total += rec.TotalActive
	}
	return total
}
