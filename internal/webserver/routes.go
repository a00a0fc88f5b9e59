package webserver

import (
	"net/http"

	"github.com/tunelab/tunestore/internal/webapi"
)

// registerRoutes sets up the JSON API and the metrics endpoint on mux and
// returns the handler chain that serves it.
func registerRoutes(mux *http.ServeMux, cfg Config) http.Handler {
	webapi.RegisterRoutes(mux, cfg.Store)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())
	mux.HandleFunc("/api/", handleUnknownAPI)

	var h http.Handler = webapi.MetricsMiddleware(mux, cfg.Metrics)
	return webapi.CORSMiddleware(h, cfg.AllowedOrigins...)
}

// handleUnknownAPI returns a JSON 404 for paths under /api/ that match no
// route.
func handleUnknownAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found","code":404}` + "\n")) //nolint:errcheck
}
