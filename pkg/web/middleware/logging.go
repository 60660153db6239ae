package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const slowRequest = 5 * time.Second

// WithAccessLog logs every completed request with its status and duration.
func WithAccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			duration := time.Since(start)
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", duration),
			}

			switch {
			case status >= http.StatusInternalServerError:
				slog.ErrorContext(r.Context(), "Request failed", attrs...)
			case duration > slowRequest:
				slog.WarnContext(r.Context(), "Slow request", attrs...)
			default:
				slog.InfoContext(r.Context(), "Request completed", attrs...)
			}
		})
	}
}
