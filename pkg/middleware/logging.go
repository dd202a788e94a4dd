package middleware

import (
	"net/http"
	"time"

	"flownet/pkg/logger"
	"flownet/pkg/telemetry"
)

// Logging логирует HTTP запросы
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newRecorder(w)

			// Выполняем handler
			next.ServeHTTP(rec, r)

			duration := time.Since(start)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", duration.Milliseconds(),
				"bytes", rec.bytes,
			}
			if requestID := GetRequestID(r.Context()); requestID != "" {
				fields = append(fields, "request_id", requestID)
			}
			if traceID := telemetry.TraceIDFromContext(r.Context()); traceID != "" {
				fields = append(fields, "trace_id", traceID)
			}

			// Логируем
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Log.Error("HTTP request failed", fields...)
			case rec.status >= http.StatusBadRequest:
				logger.Log.Warn("HTTP request rejected", fields...)
			default:
				logger.Log.Info("HTTP request completed", fields...)
			}
		})
	}
}
