package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archreview/internal/models"
)

func TestPrometheusMetrics_Observe(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveHealthProbe(&models.ModelHealthStatus{ModelID: "deepseek-v3", Available: true, ResponseTime: 120})
	m.ObserveHealthProbe(&models.ModelHealthStatus{ModelID: "kimi-k2", ErrorCode: models.ErrorCodeRateLimit, ResponseTime: 40})
	m.ObserveHealthProbe(nil)
	m.ObserveReview("architecture", false)
	m.ObserveReview("architecture", true)
	m.ObserveReview("architecture", true)
	m.ObserveHTTPRequest("GET", "/api/models", 200, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.probes.WithLabelValues("kimi-k2", "false", "RATE_LIMIT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reviews.WithLabelValues("architecture", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reviews.WithLabelValues("architecture", "model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/models", "200")))

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "archreview_health_probes_total"))
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	m.ObserveReview("structure", true)

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
