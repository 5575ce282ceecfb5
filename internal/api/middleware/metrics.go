package middleware

import (
	"net/http"
	"strconv"
	"time"

	"loanshop/internal/infrastructure/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records request counts and latency per route
// pattern, so path parameters don't explode label cardinality.
func MetricsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			monitoring.RecordHTTPRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
		}
		return http.HandlerFunc(fn)
	}
}
