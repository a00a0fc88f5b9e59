package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordFetch(t *testing.T) {
	c := NewCollector()

	c.RecordFetch("metadata.json", OutcomeOK, 120)
	c.RecordFetch("metadata.json", OutcomeOK, 80)
	c.RecordFetch("state.json", OutcomeNotFound, 0)
	c.RecordFetch("results.csv", OutcomeCached, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("metadata.json", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("state.json", OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchTotal.WithLabelValues("results.csv", OutcomeCached)))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.fetchBytes.WithLabelValues("metadata.json")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.fetchBytes), "zero-byte fetches add no series")
}

func TestCollector_RecordLoadAndCollect(t *testing.T) {
	c := NewCollector()

	c.RecordLoad(LoadUsable)
	c.RecordLoad(LoadUnusable)
	c.RecordLoad(LoadUsable)
	c.RecordCollect(3, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.loadsTotal.WithLabelValues(LoadUsable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loadsTotal.WithLabelValues(LoadUnusable)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.scannedTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(c.collectDuration))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordFetch("x", OutcomeOK, 1)
		c.RecordLoad(LoadError)
		c.RecordCollect(1, time.Second)
		c.RecordHTTPRequest(http.MethodGet, "/api/health", 200, time.Millisecond)
	})
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.RecordHTTPRequest(http.MethodGet, "/api/experiments", 200, 5*time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tunestore_http_requests_total{method="GET",route="/api/experiments",status="200"} 1`)
}
