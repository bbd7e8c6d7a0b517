package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueOf(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestObserveRequest(t *testing.T) {
	before := valueOf(t, httpRequests.WithLabelValues("GET", "/api/v1/subscriptions/:id", "200"))

	ObserveRequest("GET", "/api/v1/subscriptions/:id", http.StatusOK, 12*time.Millisecond)

	after := valueOf(t, httpRequests.WithLabelValues("GET", "/api/v1/subscriptions/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveRequest_EmptyRoute(t *testing.T) {
	ObserveRequest("GET", "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, float64(1), valueOf(t, httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestStarted(t *testing.T) {
	done := RequestStarted()
	assert.Equal(t, float64(1), valueOf(t, httpInFlight))
	done()
	assert.Equal(t, float64(0), valueOf(t, httpInFlight))
}

func TestRecordRenewalRun(t *testing.T) {
	before := valueOf(t, paymentsRecorded)

	RecordRenewalRun(true, 3)

	assert.Equal(t, before+3, valueOf(t, paymentsRecorded))
	assert.GreaterOrEqual(t, valueOf(t, renewalRuns.WithLabelValues("true")), float64(1))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RecordAchievementUnlocked("first_step")
	ObserveEngine("dashboard_summary", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cofre_achievements_unlocked_total")
	assert.Contains(t, body, "cofre_billing_computation_duration_seconds")
	assert.Contains(t, body, "cofre_websocket_connections")
}
