package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/config"
	"flownet/pkg/logger"
	"flownet/pkg/middleware"
	"flownet/pkg/passhash"
	"flownet/pkg/telemetry"
)

// AuthHandler выдаёт и обновляет токены доступа по client credentials.
// Клиенты описаны в конфигурации, секреты хранятся как argon2id хэши.
type AuthHandler struct {
	config *config.Config
	tokens *passhash.JWTManager
}

// NewAuthHandler создаёт handler
func NewAuthHandler(cfg *config.Config, tokens *passhash.JWTManager) *AuthHandler {
	return &AuthHandler{config: cfg, tokens: tokens}
}

// Token обрабатывает POST /v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "AuthHandler.Token")
	defer span.End()

	if h.tokens == nil {
		middleware.WriteError(w, r, errAuthDisabled())
		return
	}

	var req v1.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("client_id", req.ClientID))

	if req.ClientID == "" || req.ClientSecret == "" {
		middleware.WriteError(w, r, apperror.New(apperror.CodeInvalidArgument,
			"client_id and client_secret are required"))
		return
	}

	// Какая именно часть учётных данных не подошла, наружу не сообщается
	client, found := h.config.Auth.FindClient(req.ClientID)
	if !found {
		telemetry.AddEvent(ctx, "client_not_found")
		middleware.WriteError(w, r, errInvalidCredentials())
		return
	}

	valid, err := passhash.VerifyPassword(req.ClientSecret, client.SecretHash)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to verify client secret"))
		return
	}
	if !valid {
		telemetry.AddEvent(ctx, "invalid_secret")
		middleware.WriteError(w, r, errInvalidCredentials())
		return
	}

	resp, err := h.issueTokens(client.ClientID, client.Scopes)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to generate tokens"))
		return
	}

	telemetry.AddEvent(ctx, "token_issued", attribute.String("client_id", client.ClientID))
	logger.Log.Info("Access token issued", "client_id", client.ClientID)

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Refresh обрабатывает POST /v1/auth/refresh.
// Refresh токен ротируется вместе с access токеном.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "AuthHandler.Refresh")
	defer span.End()

	if h.tokens == nil {
		middleware.WriteError(w, r, errAuthDisabled())
		return
	}

	var req v1.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	if req.RefreshToken == "" {
		middleware.WriteError(w, r, apperror.New(apperror.CodeInvalidArgument,
			"refresh_token is required"))
		return
	}

	accessToken, claims, err := h.tokens.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		telemetry.AddEvent(ctx, "invalid_refresh_token")
		middleware.WriteError(w, r, apperror.New(apperror.CodeUnauthenticated, "invalid refresh token"))
		return
	}

	refreshToken, err := h.tokens.GenerateRefreshToken(claims.ClientID, claims.Scopes)
	if err != nil {
		telemetry.SetError(ctx, err)
		middleware.WriteError(w, r, apperror.Wrap(err, apperror.CodeInternal, "failed to generate tokens"))
		return
	}

	telemetry.AddEvent(ctx, "token_refreshed", attribute.String("client_id", claims.ClientID))

	middleware.WriteJSON(w, http.StatusOK, v1.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.tokens.GetAccessTokenExpiry(),
		Scopes:       claims.Scopes,
	})
}

// issueTokens генерирует пару токенов для клиента
func (h *AuthHandler) issueTokens(clientID string, scopes []string) (*v1.TokenResponse, error) {
	accessToken, err := h.tokens.GenerateAccessToken(clientID, scopes)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(clientID, scopes)
	if err != nil {
		return nil, err
	}

	return &v1.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.tokens.GetAccessTokenExpiry(),
		Scopes:       scopes,
	}, nil
}

// errInvalidCredentials единый ответ на неверные учётные данные
func errInvalidCredentials() error {
	return apperror.New(apperror.CodeUnauthenticated, "invalid client credentials")
}

// errAuthDisabled ответ token-эндпоинтов при выключенной аутентификации
func errAuthDisabled() error {
	return apperror.New(apperror.CodeUnavailable, "authentication is not configured")
}
