package middleware

import (
	"net/http"
	"strings"

	"flownet/pkg/apperror"
	"flownet/pkg/logger"
	"flownet/pkg/passhash"
)

// AuthConfig конфигурация auth middleware
type AuthConfig struct {
	Manager *passhash.JWTManager

	// PublicPaths запросы без токена (health, метрики, выдача токенов)
	PublicPaths map[string]bool

	// RequiredScopes scope по маршруту: "POST /v1/flow/solve" -> "solve".
	// Маршрут без записи требует только валидный токен.
	RequiredScopes map[string]string
}

// Auth проверяет Bearer токен и кладёт claims в контекст
func Auth(cfg *AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Публичные маршруты пропускаем
			if cfg.PublicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, err := extractToken(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			claims, err := cfg.Manager.ValidateToken(token)
			if err != nil {
				logger.Log.Warn("Token validation failed",
					"error", err,
					"path", r.URL.Path,
				)
				WriteError(w, r, apperror.New(apperror.CodeUnauthenticated, "invalid token"))
				return
			}

			// Проверяем scope для маршрута
			route := r.Method + " " + NormalizeRoute(r.URL.Path)
			if scope, ok := cfg.RequiredScopes[route]; ok && !claims.HasScope(scope) {
				logger.Log.Warn("Insufficient scope",
					"client_id", claims.ClientID,
					"route", route,
					"required", scope,
				)
				WriteError(w, r, apperror.New(apperror.CodePermissionDenied, "insufficient scope"))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken достаёт Bearer токен из заголовка Authorization
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperror.New(apperror.CodeUnauthenticated, "missing authorization header")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", apperror.New(apperror.CodeUnauthenticated, "invalid authorization header format")
	}

	return token, nil
}
