package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/queridometro/internal/metrics"
)

// Metrics records request count and latency per route pattern. Labelling by
// pattern instead of raw path keeps /api/participants/1, /2, ... in one
// series.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			m.ObserveHTTP(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}
