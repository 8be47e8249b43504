// routes/headcount_handlers.go
package routes

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
)

const (
	histogramBins = 20
	mapZoom       = 11
)

// HeadcountResponse is the filtered canonical table of a period
type HeadcountResponse struct {
	Period     models.Period               `json:"period"`
	Kind       models.SourceKind           `json:"kind"`
	Empty      bool                        `json:"empty"`
	Total      int                         `json:"total_activos"`
	Records    []models.CanonicalRecord    `json:"records"`
	Rejections map[models.RejectReason]int `json:"rejections"`
}

// MapResponse holds the located stores of a period
type MapResponse struct {
	Period  models.Period            `json:"period"`
	Empty   bool                     `json:"empty"`
	Records []models.CanonicalRecord `json:"records"`
	Center  *MapCenter               `json:"center,omitempty"`
	Zoom    int                      `json:"zoom"`
}

// MapCenter is the mean position of the located stores
type MapCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// KPIResponse is everything the dashboard summary shows for a period
type KPIResponse struct {
	Period        models.Period            `json:"period"`
	Empty         bool                     `json:"empty"`
	KPIs          analytics.KPIs           `json:"kpis"`
	Summary       analytics.Summary        `json:"summary"`
	Histogram     []analytics.HistogramBin `json:"histogram"`
	ByZone        []analytics.Breakdown    `json:"by_zone"`
	ByStoreType   []analytics.Breakdown    `json:"by_store_type"`
	ByManagerZone []analytics.ManagerZone  `json:"by_manager_zone"`
	TopStores     []models.CanonicalRecord `json:"top_stores"`
	Ranking       []analytics.StoreRank    `json:"ranking"`
	Options       analytics.Options        `json:"options"`
}

// GetPeriods lists the month vocabulary and the years present in the source
func (h *Handlers) GetPeriods(w http.ResponseWriter, r *http.Request) {
	status := h.pipeline.Status()
	if !status.Loaded {
		if err := h.pipeline.Refresh(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
		status = h.pipeline.Status()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meses": transform.Months,
		"anios": status.Years,
	})
}

// GetHeadcount returns the filtered and sorted table of a period
func (h *Handlers) GetHeadcount(w http.ResponseWriter, r *http.Request) {
	q, result, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	records := q.filter().Apply(result.Records)
	if q.SortBy != "" {
		records = analytics.SortRecords(records, q.SortBy, q.Order != "desc")
	}

	total := 0
	for _, rec := range records {
		total += rec.TotalActive
	}
	writeJSON(w, http.StatusOK, HeadcountResponse{
		Period:     result.Period,
		Kind:       result.Kind,
		Empty:      len(records) == 0,
		Total:      total,
		Records:    records,
		Rejections: result.DroppedByReason(),
	})
}

// GetMap returns the located stores that pass the filter
func (h *Handlers) GetMap(w http.ResponseWriter, r *http.Request) {
	q, result, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	located := q.filter().Apply(result.Located)
	resp := MapResponse{Period: result.Period, Empty: len(located) == 0, Records: located, Zoom: mapZoom}
	if lat, lon, ok := analytics.MapCenter(located); ok {
		resp.Center = &MapCenter{Lat: lat, Lon: lon}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetKPIs returns indicators, statistics and breakdowns of a period
func (h *Handlers) GetKPIs(w http.ResponseWriter, r *http.Request) {
	q, result, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	filtered := q.filter().Apply(result.Records)
	writeJSON(w, http.StatusOK, KPIResponse{
		Period:        result.Period,
		Empty:         len(filtered) == 0,
		KPIs:          analytics.ComputeKPIs(filtered, result.Records),
		Summary:       analytics.Summarize(filtered),
		Histogram:     analytics.Histogram(filtered, histogramBins),
		ByZone:        analytics.ByZone(filtered),
		ByStoreType:   analytics.ByStoreType(filtered),
		ByManagerZone: analytics.ByManagerZone(filtered),
		TopStores:     analytics.TopStores(filtered, h.topStores),
		Ranking:       analytics.RankStores(filtered),
		Options:       analytics.BuildOptions(result.Records),
	})
}

// GetTrend returns the monthly series of a year with its forecast
func (h *Handlers) GetTrend(w http.ResponseWriter, r *http.Request) {
	q, err := parseTrendQuery(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.validate.Struct(q); err != nil {
		badRequest(w, validationMessage(err))
		return
	}

	trend, err := h.pipeline.Trend(r.Context(), q.Year, q.Forecast)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// Export downloads the filtered table of a period as CSV or XLSX
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	q, result, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	filtered := *result
	filtered.Records = q.filter().Apply(result.Records)
	filtered.Located = q.filter().Apply(result.Located)

	format := q.format()
	var buf bytes.Buffer
	if err := load.Export(&buf, format, &filtered); err != nil {
		h.writeError(w, err)
		return
	}

	name := load.FileName(result.Period, h.now(), format)
	w.Header().Set("Content-Type", load.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("Writing export %s: %v", name, err)
	}
}
