package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRegistersAndServesCollectors(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/users", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, 2*time.Millisecond)
	m.RecordCacheOperation(false, 3*time.Millisecond)
	m.ObserveCacheWrite(time.Millisecond)
	m.ObserveDBQuery("users_list", 5*time.Millisecond)
	m.RecordSettingsWrite(true)
	m.RecordSettingsWrite(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "campus_admin_http_requests_total")
	assert.Contains(t, body, "campus_admin_cache_latency_seconds")
	assert.Contains(t, body, "campus_admin_cache_write_seconds")
	assert.Contains(t, body, "campus_admin_settings_writes_total")
	assert.Contains(t, body, `outcome="applied"`)
	assert.Contains(t, body, `outcome="rejected"`)
}

func TestMetricsServiceSnapshotAggregates(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/users", http.StatusOK, 30*time.Millisecond)

	snap := m.Snapshot()
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.01)
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService

	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordSettingsWrite(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
