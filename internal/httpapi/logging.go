package httpapi

import (
	"context"
	"expvar"
	"net/http"
	"strings"
	"time"

	"oneonone/agenda-service/internal/logging"

	"github.com/google/uuid"
)

var (
	requestsTotal      = expvar.NewInt("requests_total")
	requestsErrors     = expvar.NewInt("requests_errors_total")
	generationsTotal   = expvar.NewInt("agenda_generations_total")
	generationFailures = expvar.NewInt("agenda_generation_failures_total")
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type requestInfoKey struct{}

// requestInfo is filled in by inner handlers so the access log can report
// the authenticated user.
type requestInfo struct {
	user string
}

func setRequestUser(ctx context.Context, user string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.user = user
	}
}

func LoggingMiddleware(log logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		info := &requestInfo{}
		ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r.WithContext(ctx))

		requestsTotal.Add(1)
		if writer.status >= http.StatusBadRequest {
			requestsErrors.Add(1)
		}
		log.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"user", info.user,
			"request_id", requestID,
		)
	})
}
