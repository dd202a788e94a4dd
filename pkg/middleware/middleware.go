// Package middleware собирает HTTP цепочку сервиса: recovery, request ID,
// CORS, rate limiting, трассировка, метрики, логирование, аутентификация
// и аудит. Порядок фиксирован в Chain; отдельные middleware можно
// использовать и напрямую через Wrap.
package middleware

import (
	"net/http"

	"flownet/pkg/audit"
	"flownet/pkg/config"
	"flownet/pkg/ratelimit"
	"flownet/pkg/telemetry"
)

// ServerConfig конфигурация серверной цепочки middleware
type ServerConfig struct {
	ServiceName   string
	EnableTracing bool
	EnableAudit   bool
	RateLimiter   ratelimit.Limiter
	KeyExtractor  ratelimit.KeyExtractor
	AuditLogger   audit.Logger
	AuditExclude  map[string]bool
	Auth          *AuthConfig
	CORS          *config.CORSConfig
}

// Chain возвращает полную серверную цепочку middleware
func Chain(cfg *ServerConfig) func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		RequestID(),
		Recovery(),
	}

	// CORS до rate limiting: preflight не тратит лимит клиента
	if cfg.CORS != nil && cfg.CORS.Enabled {
		chain = append(chain, CORS(*cfg.CORS))
	}

	// Rate Limiting (первым после recovery)
	if cfg.RateLimiter != nil {
		chain = append(chain, RateLimit(cfg.RateLimiter, cfg.KeyExtractor))
	}

	// Tracing
	if cfg.EnableTracing {
		chain = append(chain, telemetry.HTTPMiddleware)
	}

	// Metrics
	chain = append(chain, Metrics())

	// Logging
	chain = append(chain, Logging())

	// Audit до Auth: отказы авторизации тоже попадают в журнал
	if cfg.EnableAudit {
		chain = append(chain, Audit(&AuditConfig{
			ServiceName:  cfg.ServiceName,
			ExcludePaths: cfg.AuditExclude,
			Logger:       cfg.AuditLogger,
		}))
	}

	// Auth (последним перед handler'ом)
	if cfg.Auth != nil && cfg.Auth.Manager != nil {
		chain = append(chain, Auth(cfg.Auth))
	}

	return func(next http.Handler) http.Handler {
		return Wrap(next, chain...)
	}
}

// ChainDefault минимальная цепочка без лимитов, авторизации и аудита
func ChainDefault(serviceName string, enableTracing bool) func(http.Handler) http.Handler {
	return Chain(&ServerConfig{
		ServiceName:   serviceName,
		EnableTracing: enableTracing,
	})
}

// Wrap оборачивает handler в middleware. Первый элемент списка внешний:
// Wrap(h, a, b) эквивалентно a(b(h)).
func Wrap(h http.Handler, chain ...func(http.Handler) http.Handler) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
