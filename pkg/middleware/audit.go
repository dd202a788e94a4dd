package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flownet/pkg/audit"
	"flownet/pkg/logger"
)

// AuditConfig конфигурация аудит middleware
type AuditConfig struct {
	ServiceName  string
	ExcludePaths map[string]bool
	Logger       audit.Logger
}

// Audit пишет аудит запись по каждому запросу.
// Последний в цепочке, чтобы фиксировать фактический результат.
func Audit(cfg *AuditConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = audit.Get()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Пропускаем исключённые маршруты
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			clientIP := extractClientIP(r)
			requestID := GetRequestID(r.Context())

			rec := newRecorder(w)

			// Выполняем handler
			next.ServeHTTP(rec, r)

			duration := time.Since(start)

			route := r.Method + " " + NormalizeRoute(r.URL.Path)

			// Строим аудит запись
			builder := audit.NewEntry().
				Service(cfg.ServiceName).
				Method(route).
				Action(routeToAction(r.Method, r.URL.Path)).
				User(GetClientID(r.Context()), "").
				Client(clientIP, r.UserAgent()).
				RequestID(requestID).
				Duration(duration)

			switch {
			case rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden:
				builder.Outcome(audit.OutcomeDenied).
					Error(strconv.Itoa(rec.status), http.StatusText(rec.status))
			case rec.status >= http.StatusBadRequest:
				builder.Outcome(audit.OutcomeFailure).
					Error(strconv.Itoa(rec.status), http.StatusText(rec.status))
			default:
				builder.Outcome(audit.OutcomeSuccess)
			}

			entry := builder.Build()

			// Асинхронно логируем
			go func() {
				if logErr := cfg.Logger.Log(context.Background(), entry); logErr != nil {
					logger.Log.Warn("Failed to write audit log", "error", logErr)
				}
			}()
		})
	}
}

func extractClientIP(r *http.Request) string {
	// За балансировщиком реальный адрес в X-Forwarded-For
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// routeToAction определяет действие по маршруту
func routeToAction(method, path string) audit.Action {
	switch {
	case strings.Contains(path, "/flow/solve"):
		return audit.ActionSolve
	case strings.Contains(path, "/validate"):
		return audit.ActionValidate
	case strings.Contains(path, "/generate"):
		return audit.ActionGenerate
	case strings.Contains(path, "/report"):
		return audit.ActionAnalyze
	case strings.Contains(path, "/auth/token"):
		return audit.ActionLogin
	case method == http.MethodDelete:
		return audit.ActionDelete
	case method == http.MethodPost || method == http.MethodPut:
		return audit.ActionUpdate
	default:
		return audit.ActionRead
	}
}
