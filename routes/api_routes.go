// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the API, metrics and websocket endpoints
func SetupRoutes(router *mux.Router, h *Handlers, ws http.HandlerFunc, gatherer prometheus.Gatherer) {
	router.Use(CORSMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/periods", h.GetPeriods).Methods("GET", "OPTIONS")
	api.HandleFunc("/source", h.GetSource).Methods("GET", "OPTIONS")
	api.HandleFunc("/headcount", h.GetHeadcount).Methods("GET", "OPTIONS")
	api.HandleFunc("/headcount/map", h.GetMap).Methods("GET", "OPTIONS")
	api.HandleFunc("/kpis", h.GetKPIs).Methods("GET", "OPTIONS")
	api.HandleFunc("/trend", h.GetTrend).Methods("GET", "OPTIONS")
	api.HandleFunc("/export", h.Export).Methods("GET", "OPTIONS")
	api.HandleFunc("/layers", h.ListLayers).Methods("GET", "OPTIONS")
	api.HandleFunc("/layers/{name}", h.GetLayer).Methods("GET", "OPTIONS")
	api.HandleFunc("/cache/invalidate", h.InvalidateCache).Methods("POST", "OPTIONS")
	api.HandleFunc("/source/refresh", h.RefreshSource).Methods("POST", "OPTIONS")

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if ws != nil {
		router.HandleFunc("/ws", ws)
	}
}

// CORSMiddleware allows the dashboard to call the API from another origin
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
