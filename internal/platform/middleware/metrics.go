package middleware

import (
	"net/http"
	"time"

	"github.com/valinor-ai/muxrelay/internal/platform/metrics"
)

// Metrics records request counts and latency. Routes are labelled by the
// matched ServeMux pattern so path values do not explode label cardinality.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}
