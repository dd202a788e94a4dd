package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"flownet/pkg/passhash"
)

// contextKey приватный тип для ключей контекста
type contextKey string

const (
	clientIDKey  contextKey = "client_id"
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "request_id"
)

// GetClientID извлекает идентификатор клиента из контекста
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims извлекает JWT claims из контекста
func GetClaims(ctx context.Context) *passhash.Claims {
	if claims, ok := ctx.Value(claimsKey).(*passhash.Claims); ok {
		return claims
	}
	return nil
}

// GetRequestID извлекает request ID из контекста
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithClaims добавляет claims и client ID в контекст
func WithClaims(ctx context.Context, claims *passhash.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, clientIDKey, claims.ClientID)
}

// WithRequestID добавляет request ID в контекст
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GenerateRequestID генерирует случайный request ID
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
