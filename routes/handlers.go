// routes/handlers.go
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// Pipeline is what the API needs from the ETL runner
type Pipeline interface {
	Process(ctx context.Context, month string, year int) (*models.Result, error)
	Trend(ctx context.Context, year int, forecastMonths int) (analytics.Trend, error)
	Refresh(ctx context.Context) error
	Invalidate(ctx context.Context) error
	Status() runner.SourceStatus
}

// Handlers serves the dashboard API
type Handlers struct {
	pipeline  Pipeline
	layers    *extractors.LayerCatalog
	logger    *utils.ETLLogger
	validate  *validator.Validate
	topStores int
	now       func() time.Time
}

// NewHandlers creates the API handlers. layers may be nil.
func NewHandlers(pipeline Pipeline, layers *extractors.LayerCatalog, topStores int, logger *utils.ETLLogger) *Handlers {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if topStores <= 0 {
		topStores = 15
	}
	return &Handlers{
		pipeline:  pipeline,
		layers:    layers,
		logger:    logger,
		validate:  newValidator(),
		topStores: topStores,
		now:       time.Now,
	}
}

// errorResponse is the body of every non-2xx JSON answer
type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var schemaErr *transform.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: schemaErr.Error(), Missing: schemaErr.Missing})
	case errors.Is(err, extractors.ErrLayerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// periodRequest parses, validates and processes the period of a request.
// ok is false when a response was already written.
func (h *Handlers) periodRequest(w http.ResponseWriter, r *http.Request) (headcountQuery, *models.Result, bool) {
	q, err := parseHeadcountQuery(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return q, nil, false
	}
	if err := h.validate.Struct(q); err != nil {
		badRequest(w, validationMessage(err))
		return q, nil, false
	}

	result, err := h.pipeline.Process(r.Context(), q.Month, q.Year)
	if err != nil {
		h.writeError(w, err)
		return q, nil, false
	}
	return q, result, true
}
