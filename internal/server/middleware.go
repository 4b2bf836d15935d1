package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/finoptiv/shelf/internal/server/ipgeo"
	"github.com/finoptiv/shelf/internal/server/reqctx"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request after it completes.
// geo may be nil when no GeoIP database is configured.
func LoggingMiddleware(next http.Handler, geo *ipgeo.Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ip := reqctx.GetClientIP(r)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"ip", ip,
		}
		if geo != nil {
			if country := geo.CountryCode(ip); country != "" {
				attrs = append(attrs, "country", country)
			}
		}
		slog.InfoContext(r.Context(), "http", attrs...)
	})
}
