package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()

	require.NotPanics(t, func() {
		ObserveRequest("success")
		ObserveCacheHit()
		ObserveModelCall("gpt-4o", "success", 2*time.Second)
		ObserveAcquire("Live", 5*time.Second)
		ObserveHTTPRequest("POST", 200)
	})
}

func TestHandler_ServesMetrics(t *testing.T) {
	Init()
	ObserveRequest("success")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "analysis_requests_total")
}
