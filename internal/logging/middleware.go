package logging

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// NewRequestLoggerMiddleware stores a logger describing the request in the request context and logs
// the outcome once the handler returns
func NewRequestLoggerMiddleware(logger *slog.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(RequestIDHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}

			page := r.URL.Query().Get("page")
			if page == "" {
				page = "<missing>"
			}

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			requestLogger := logger.With(
				slog.String("correlationID", correlationID),
				slog.String("page", page),
				slog.String("userAgent", userAgent),
				slog.String("methodPath", fmt.Sprintf("%s %s", r.Method, r.URL.Path)),
			)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(recorder, r.WithContext(AddToContext(r.Context(), requestLogger)))

			requestLogger.InfoContext(r.Context(), "Request completed",
				slog.Int("status", recorder.status),
				slog.Int64("durationMs", time.Since(start).Milliseconds()),
			)
		}
	}
}
