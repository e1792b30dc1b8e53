package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsSkipsConfiguredPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := NewHTTPMetrics(registry, "test", "/healthz")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/search", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/healthz", "/api/search", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "/api/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "/healthz", "200")))
}

func TestSearchMetricsNilSafe(t *testing.T) {
	var m *SearchMetrics
	m.ObserveSearch("products", "ok", 3, time.Millisecond)
	m.ObserveGeoSyncPublish("t", "ok")
	m.ObserveGeoSyncConsume("t", "ok", time.Millisecond)
	m.ObserveRetry("dlq")
	m.ObserveCache(true)
}

func TestSearchMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSearchMetrics(registry, "test")

	m.ObserveSearch("products", "ok", 4, 10*time.Millisecond)
	m.ObserveSearch("products", "invalid", 0, time.Millisecond)
	m.ObserveSearch("shops", "", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchTotal.WithLabelValues("products", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchTotal.WithLabelValues("products", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchTotal.WithLabelValues("shops", "unknown")))

	families, err := registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, strings.Join(names, ","), "inventory_search_results")
}

func TestNormalizeSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, normalizeSampleRate(0))
	assert.Equal(t, 1.0, normalizeSampleRate(2))
	assert.Equal(t, 0.25, normalizeSampleRate(0.25))
}

func TestMetricsRegistryBuildInfo(t *testing.T) {
	registry := NewMetricsRegistry(BuildInfo{Service: "inventory", Version: "1.2.3", Environment: "test"})
	families, err := registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "inventory_build_info" {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())
	}
	assert.True(t, found, "build info gauge is registered")
}
