package webserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/webapi"
)

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "exp-1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"),
		[]byte(`{"created_at": 1, "metric_mode": "min", "metric_names": ["loss"], "entrypoint": "train.py"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.csv"),
		[]byte("trial_id,st_tuner_time,loss\n0,1,3\n1,2,1\n"), 0o644))

	coll := metrics.NewCollector()
	st := store.New(locator.New(root, locator.Location{}), store.WithMetrics(coll))
	srv, err := New(Config{
		Port:    0,
		Store:   webapi.NewCollectionStore(st, store.CollectOptions{}),
		Metrics: coll,
		Out:     io.Discard,
	})
	require.NoError(t, err)
	return srv, coll
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPISummaryReturnsJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/summary")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["usable"])
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/nothing/here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	get(t, h, "/api/experiments")
	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "tunestore_loads_total")
	assert.Contains(t, body, `route="GET /api/experiments"`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/experiments")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close() //nolint:errcheck
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"exp-1"`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
