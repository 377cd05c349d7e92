package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jordan/payment-capture-scheduler/pkg/metrics"
)

// RequestMetrics records request counts and latencies. The path label uses
// the chi route pattern so order IDs do not blow up metric cardinality.
func RequestMetrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			next.ServeHTTP(ww, r)

			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = r.URL.Path
			}

			m.APIRequestCount.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			m.APIRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
		return http.HandlerFunc(fn)
	}
}
