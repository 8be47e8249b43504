// routes/admin_handlers.go
package routes

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/obeya_headcount/ETL/extractors"
)

// GetSource describes the dataset currently loaded
func (h *Handlers) GetSource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pipeline.Status())
}

// RefreshSource reloads the raw dataset
func (h *Handlers) RefreshSource(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Refresh(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Status())
}

// InvalidateCache drops every memoized result
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Invalidate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
}

// ListLayers lists the geospatial overlay files
func (h *Handlers) ListLayers(w http.ResponseWriter, r *http.Request) {
	if h.layers == nil {
		writeJSON(w, http.StatusOK, []extractors.Layer{})
		return
	}
	layers, err := h.layers.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layers)
}

// GetLayer streams one GeoJSON layer
func (h *Handlers) GetLayer(w http.ResponseWriter, r *http.Request) {
	if h.layers == nil {
		h.writeError(w, extractors.ErrLayerNotFound)
		return
	}
	rc, layer, err := h.layers.Open(mux.Vars(r)["name"])
	if err != nil {
		if layer != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Streaming layer %s: %v", layer.Name, err)
	}
}
