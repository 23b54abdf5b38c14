package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Luca-B431/bill-app/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging returns a middleware that logs every request with its status and
// duration, and counts it in m (which may be nil).
func Logging(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start).Milliseconds()
			sessionID := SessionID(r.Context()) // empty before the session middleware
			m.ObserveHTTP(r.Method, strconv.Itoa(rec.status))

			switch {
			case rec.status >= 500:
				slog.Error("HTTP error",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"session_id", sessionID,
					"duration_ms", duration,
				)
			case rec.status >= 400:
				slog.Warn("HTTP error",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"session_id", sessionID,
					"duration_ms", duration,
				)
			default:
				slog.Info("HTTP ok",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"duration_ms", duration,
				)
			}
		})
	}
}
