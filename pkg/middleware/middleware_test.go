package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
	"github.com/jordan/payment-capture-scheduler/pkg/middleware"
)

func TestStructuredLoggerPassesThrough(t *testing.T) {
	handler := middleware.NewStructuredLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scheduled", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "short and stout", rec.Body.String())
}

func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(middleware.RequestMetrics(m))
	r.Get("/api/v1/scheduled/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, orderID := range []string{"1001", "1002"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scheduled/"+orderID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Both requests fold into the route pattern rather than per-order paths.
	count := testutil.ToFloat64(m.APIRequestCount.WithLabelValues(http.MethodGet, "/api/v1/scheduled/{orderID}", "200"))
	require.Equal(t, float64(2), count)
}

func TestVerifyWebhookSignaturePassesThrough(t *testing.T) {
	var sawBody bool
	handler := middleware.VerifyWebhookSignature(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawBody = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Unsigned", func(t *testing.T) {
		sawBody = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, sawBody)
	})

	t.Run("Signed", func(t *testing.T) {
		sawBody = false
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/updated", nil)
		req.Header.Set(middleware.HeaderWebhookSignature, "c2lnbmVk")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, sawBody)
	})
}
