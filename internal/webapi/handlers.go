package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tunelab/tunestore/internal/aggregate"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/models"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// Page sizes for the results endpoint.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store ExperimentStore
}

// NewHandlers creates a new Handlers with the given store.
func NewHandlers(store ExperimentStore) *Handlers {
	return &Handlers{store: store}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleSummary returns counts across the collection.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	coll, err := h.store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := SummaryResponse{Scanned: coll.Scanned, Usable: coll.Usable()}
	for _, e := range coll.Experiments {
		resp.TotalRows += e.Results.Len()
		resp.TotalTrials += e.TrialCount()
	}
	if len(coll.Experiments) > 0 {
		resp.Latest = coll.Experiments[0].Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleExperiments lists the usable experiments, most recent first.
func (h *Handlers) HandleExperiments(w http.ResponseWriter, r *http.Request) {
	coll, err := h.store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]ExperimentSummary, 0, len(coll.Experiments))
	for _, e := range coll.Experiments {
		out = append(out, Summarize(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExperimentDetail returns one experiment with its metadata.
func (h *Handlers) HandleExperimentDetail(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experiment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDetail(exp))
}

// HandleResults returns a window of the results table.
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, err := intParam(r, "limit", DefaultPageSize)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, MaxPageSize)

	exp, ok := h.experiment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ResultsPage{
		Name:    exp.Name,
		Offset:  offset,
		Limit:   limit,
		Total:   exp.Results.Len(),
		Columns: exp.Results.Columns(),
		Rows:    exp.Results.Slice(offset, limit),
	})
}

// HandleBest returns the best observed configuration. The optional metric
// query parameter picks a metric other than the first declared one.
func (h *Handlers) HandleBest(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experiment(w, r)
	if !ok {
		return
	}
	metric, mode, err := resolveMetric(exp, r.URL.Query().Get("metric"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var cfg aggregate.Config
	if r.URL.Query().Get("metric") == "" {
		cfg, err = aggregate.BestConfig(exp)
	} else {
		cfg, err = aggregate.BestConfigWith(exp, metric)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BestResponse{
		Name:            exp.Name,
		Metric:          metric,
		Mode:            string(mode),
		Config:          cfg,
		HyperParameters: aggregate.HyperParameters(cfg),
	})
}

// HandleTimeSeries returns the running best of a metric.
func (h *Handlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experiment(w, r)
	if !ok {
		return
	}
	metric, mode, err := resolveMetric(exp, r.URL.Query().Get("metric"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	points, err := aggregate.TimeSeries(exp, metric)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if points == nil {
		points = []aggregate.Point{}
	}
	writeJSON(w, http.StatusOK, TimeSeriesResponse{
		Name:   exp.Name,
		Metric: metric,
		Mode:   string(mode),
		Points: points,
	})
}

func (h *Handlers) experiment(w http.ResponseWriter, r *http.Request) (*models.Experiment, bool) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "experiment name is required")
		return nil, false
	}
	exp, err := h.store.Get(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return exp, true
}

// resolveMetric defaults an empty metric to the first declared one.
func resolveMetric(exp *models.Experiment, metric string) (string, models.Mode, error) {
	hdr, err := exp.Header()
	if err != nil {
		return "", "", err
	}
	if metric == "" && len(hdr.MetricNames) > 0 {
		metric = hdr.MetricNames[0]
	}
	return metric, hdr.MetricMode, nil
}

func intParam(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store ExperimentStore) {
	h := NewHandlers(store)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/experiments", h.HandleExperiments)
	mux.HandleFunc("GET /api/experiments/{name}", h.HandleExperimentDetail)
	mux.HandleFunc("GET /api/experiments/{name}/results", h.HandleResults)
	mux.HandleFunc("GET /api/experiments/{name}/best", h.HandleBest)
	mux.HandleFunc("GET /api/experiments/{name}/timeseries", h.HandleTimeSeries)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MetricsMiddleware records method, matched route and status of every
// request on c. The route is the mux pattern, so it must wrap the mux.
func MetricsMiddleware(next http.Handler, c *metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// statusFor maps the store's error classes onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, ErrExperimentNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInfrastructure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
