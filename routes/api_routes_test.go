package routes

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/metrics"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
)

type tableSource struct {
	columns []string
	rows    [][]string
}

func (s tableSource) Name() string { return "table" }

func (s tableSource) Extract(context.Context) (*models.Frame, error) {
	frame := models.NewFrame(s.columns)
	for _, row := range s.rows {
		cells := make([]sql.NullString, len(row))
		for i, v := range row {
			if v != "" {
				cells[i] = sql.NullString{String: v, Valid: true}
			}
		}
		if err := frame.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

var headcountSource = tableSource{
	columns: []string{"almacen", "zona", "gestor", "tipo_tienda", "logitud", "latitud", "mes", "ano", "empleado"},
	rows: [][]string{
		{"A1", "NORTE", "G1", "T1", "-74.0", "4.0", "MARZO", "2026", "e1"},
		{"A1", "NORTE", "G1", "T1", "-74.0", "4.0", "MARZO", "2026", "e2"},
		{"B2", "SUR", "G2", "T2", "-75.0", "5.0", "MARZO", "2026", "e3"},
		{"C3", "SUR", "G2", "T2", "", "6.0", "MARZO", "2026", "e4"},
		{"C3", "SUR", "G2", "T2", "-75.5", "5.5", "ABRIL", "2026", "e5"},
	},
}

const testLayer = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[-74.1,4.6]}}]}`

func newTestRouter(t *testing.T, source extractors.FrameSource) *mux.Router {
	t.Helper()
	reg := prometheus.NewRegistry()
	r, err := runner.New(runner.Options{
		Extractor: extractors.NewExtractor(source, nil),
		Cache:     load.NewMemoryCache(time.Minute),
		Metrics:   metrics.New(reg),
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zonas.geojson"), []byte(testLayer), 0o644))

	h := NewHandlers(r, extractors.NewLayerCatalog(dir, nil), 2, nil)
	h.now = func() time.Time { return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC) }

	router := mux.NewRouter()
	SetupRoutes(router, h, nil, reg)
	return router
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetHeadcount(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/headcount?mes=marzo&anio=2026&sort=total_activos&order=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Empty      bool                     `json:"empty"`
		Total      int                      `json:"total_activos"`
		Records    []models.CanonicalRecord `json:"records"`
		Rejections map[string]int           `json:"rejections"`
	}
	decode(t, rec, &body)
	assert.False(t, body.Empty)
	assert.Equal(t, 4, body.Total)
	require.Len(t, body.Records, 3)
	assert.Equal(t, "A1", body.Records[0].Store.String)
	assert.Equal(t, 2, body.Records[0].TotalActive)
	assert.Equal(t, 1, body.Rejections["missing_longitude"])
}

func TestGetHeadcount_FiltersAndEmpty(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/headcount?mes=MARZO&anio=2026&zona=SUR&min=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered HeadcountResponse
	decode(t, rec, &filtered)
	assert.Len(t, filtered.Records, 2)

	rec = do(t, router, http.MethodGet, "/api/headcount?mes=JULIO&anio=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty HeadcountResponse
	decode(t, rec, &empty)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Records)
}

func TestGetHeadcount_BadParameters(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	for _, target := range []string{
		"/api/headcount?mes=MARZO",
		"/api/headcount?mes=MARZO&anio=dos",
		"/api/headcount?mes=SMARCH&anio=2026",
		"/api/headcount?mes=MARZO&anio=2026&min=-3",
		"/api/headcount?mes=MARZO&anio=2026&sort=ccosto",
	} {
		rec := do(t, router, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetHeadcount_SchemaError(t *testing.T) {
	router := newTestRouter(t, tableSource{columns: []string{"zona", "mes", "ano"}})

	rec := do(t, router, http.MethodGet, "/api/headcount?mes=MARZO&anio=2026")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"almacen"}, body.Missing)
}

func TestGetMap(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/headcount/map?mes=MARZO&anio=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	var body MapResponse
	decode(t, rec, &body)
	require.Len(t, body.Records, 2)
	require.NotNil(t, body.Center)
	assert.InDelta(t, 4.5, body.Center.Lat, 1e-9)
	assert.InDelta(t, -74.5, body.Center.Lon, 1e-9)
	assert.Equal(t, 11, body.Zoom)
}

func TestGetKPIs(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/kpis?mes=MARZO&anio=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	var body KPIResponse
	decode(t, rec, &body)
	assert.Equal(t, 3, body.KPIs.Stores)
	assert.Equal(t, 4, body.KPIs.TotalActive)
	assert.Equal(t, 4, body.Summary.Sum)
	assert.Len(t, body.TopStores, 2)
	assert.Equal(t, []string{"NORTE", "SUR"}, body.Options.Zones)
}

func TestGetTrendAndPeriods(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/periods")
	require.Equal(t, http.StatusOK, rec.Code)
	var periods struct {
		Months []string `json:"meses"`
		Years  []int    `json:"anios"`
	}
	decode(t, rec, &periods)
	assert.Len(t, periods.Months, 12)
	assert.Equal(t, []int{2026}, periods.Years)

	rec = do(t, router, http.MethodGet, "/api/trend?anio=2026&forecast=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var trend struct {
		Points    []json.RawMessage `json:"points"`
		Forecasts []json.RawMessage `json:"forecasts"`
	}
	decode(t, rec, &trend)
	assert.Len(t, trend.Points, 2)
	assert.Len(t, trend.Forecasts, 2)

	rec = do(t, router, http.MethodGet, "/api/trend?anio=2026&forecast=99")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/export?mes=MARZO&anio=2026&zona=NORTE")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Obeya_Comercial_MARZO_2026_20260402.csv"`, rec.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total_activos", rows[0][10])
	assert.Equal(t, "A1", rows[1][0])

	rec = do(t, router, http.MethodGet, "/api/export?mes=MARZO&anio=2026&format=xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, load.ContentType(load.FormatXLSX), rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestLayers(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/layers")
	require.Equal(t, http.StatusOK, rec.Code)
	var layers []extractors.Layer
	decode(t, rec, &layers)
	require.Len(t, layers, 1)
	assert.Equal(t, "zonas.geojson", layers[0].Name)

	rec = do(t, router, http.MethodGet, "/api/layers/zonas.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, testLayer, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/layers/missing.geojson")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	router := newTestRouter(t, headcountSource)

	rec := do(t, router, http.MethodGet, "/api/source")
	require.Equal(t, http.StatusOK, rec.Code)
	var status runner.SourceStatus
	decode(t, rec, &status)
	assert.False(t, status.Loaded)

	rec = do(t, router, http.MethodPost, "/api/source/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.True(t, status.Loaded)
	assert.Equal(t, 5, status.RowsRead)

	rec = do(t, router, http.MethodPost, "/api/cache/invalidate")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/cache/invalidate")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, router, http.MethodOptions, "/api/kpis")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, headcountSource)
	do(t, router, http.MethodGet, "/api/headcount?mes=MARZO&anio=2026")

	rec := do(t, router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `obeya_rows_rejected_total{reason="missing_longitude"} 1`)
	assert.Contains(t, rec.Body.String(), `obeya_cache_lookups_total{result="miss"} 1`)
}
