package passhash

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flownet/pkg/config"
)

// Scopes, проверяемые на защищённых маршрутах
const (
	ScopeSolve   = "solve"   // запуск вычислений и генерация сетей
	ScopeReports = "reports" // выгрузка отчётов
	ScopeAdmin   = "admin"   // полный доступ, включая инвалидацию кэша
)

// JWTConfig конфигурация JWT
type JWTConfig struct {
	SecretKey          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// DefaultJWTConfig возвращает конфигурацию по умолчанию
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:          "change-me-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "flownet",
	}
}

// JWTConfigFromAuth строит конфигурацию из секции auth
func JWTConfigFromAuth(cfg *config.AuthConfig) *JWTConfig {
	out := DefaultJWTConfig()
	if cfg == nil {
		return out
	}
	if cfg.SecretKey != "" {
		out.SecretKey = cfg.SecretKey
	}
	if cfg.AccessTokenExpiry > 0 {
		out.AccessTokenExpiry = cfg.AccessTokenExpiry
	}
	if cfg.RefreshTokenExpiry > 0 {
		out.RefreshTokenExpiry = cfg.RefreshTokenExpiry
	}
	if cfg.Issuer != "" {
		out.Issuer = cfg.Issuer
	}
	return out
}

// Claims кастомные claims для JWT
type Claims struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// HasScope проверяет наличие scope. Admin покрывает все остальные.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// JWTManager управляет JWT токенами
type JWTManager struct {
	config *JWTConfig
}

// NewJWTManager создаёт новый менеджер JWT
func NewJWTManager(config *JWTConfig) *JWTManager {
	if config == nil {
		config = DefaultJWTConfig()
	}
	return &JWTManager{config: config}
}

// GenerateAccessToken генерирует access token
func (m *JWTManager) GenerateAccessToken(clientID string, scopes []string) (string, error) {
	return m.generateToken(clientID, scopes, m.config.AccessTokenExpiry)
}

// GenerateRefreshToken генерирует refresh token
func (m *JWTManager) GenerateRefreshToken(clientID string, scopes []string) (string, error) {
	return m.generateToken(clientID, scopes, m.config.RefreshTokenExpiry)
}

func (m *JWTManager) generateToken(clientID string, scopes []string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		ClientID: clientID,
		Scopes:   scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken валидирует токен и возвращает claims.
// Проверяются подпись, срок действия и issuer (если задан).
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.SecretKey), nil
	}, opts...)

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// GetAccessTokenExpiry возвращает время жизни access token в секундах
func (m *JWTManager) GetAccessTokenExpiry() int64 {
	return int64(m.config.AccessTokenExpiry.Seconds())
}

// RefreshAccessToken обновляет access token используя refresh token
func (m *JWTManager) RefreshAccessToken(refreshToken string) (string, *Claims, error) {
	claims, err := m.ValidateToken(refreshToken)
	if err != nil {
		return "", nil, err
	}

	newAccessToken, err := m.GenerateAccessToken(claims.ClientID, claims.Scopes)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, claims, nil
}
