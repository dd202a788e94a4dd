package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"flownet/pkg/config"
)

// Стандартные ошибки
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN проверяет, разрешены ли n запросов
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait блокирует до получения разрешения
	Wait(ctx context.Context, key string) error

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// GetInfo возвращает информацию о текущем состоянии
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close закрывает лимитер
	Close() error
}

// LimitInfo информация о состоянии лимита.
// RetryAfter заполняется, когда лимит исчерпан, и попадает
// в заголовок Retry-After ответа 429.
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация rate limiter
type Config struct {
	// Requests количество запросов
	Requests int `koanf:"requests"`

	// Window временное окно
	Window time.Duration `koanf:"window"`

	// Strategy стратегия (sliding_window, token_bucket, fixed_window)
	Strategy string `koanf:"strategy"`

	// KeyFunc функция извлечения ключа (ip, route, client)
	KeyFunc string `koanf:"key_func"`

	// Backend хранилище (memory, redis)
	Backend string `koanf:"backend"`

	// BurstSize размер burst для token bucket
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval интервал очистки для in-memory
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis настройки Redis
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		KeyFunc:         "ip",
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// FromConfig строит конфигурацию лимитера из секции rate_limit
func FromConfig(cfg *config.RateLimitConfig) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.Requests > 0 {
		out.Requests = cfg.Requests
	}
	if cfg.Window > 0 {
		out.Window = cfg.Window
	}
	if cfg.Strategy != "" {
		out.Strategy = cfg.Strategy
	}
	if cfg.Backend != "" {
		out.Backend = cfg.Backend
	}
	if cfg.BurstSize > 0 {
		out.BurstSize = cfg.BurstSize
	}
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RedisAddr != "" {
		out.RedisAddr = cfg.RedisAddr
	}
	return out
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor извлекает ключ лимитирования из HTTP-запроса
type KeyExtractor func(r *http.Request) string

// IPKeyExtractor извлекает ключ по IP клиента.
// Учитывает прокси-заголовки, затем RemoteAddr.
func IPKeyExtractor(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// Первый адрес в цепочке — исходный клиент
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// RouteKeyExtractor извлекает ключ по маршруту
func RouteKeyExtractor(r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

// ClientKeyExtractor извлекает ключ по идентификатору клиента из токена,
// с откатом на IP для анонимных запросов
func ClientKeyExtractor(r *http.Request) string {
	if clientID := r.Header.Get("X-Client-ID"); clientID != "" {
		return clientID
	}
	return IPKeyExtractor(r)
}

// CompositeKeyExtractor комбинирует несколько ключей
func CompositeKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, ext := range extractors {
			parts = append(parts, ext(r))
		}
		return strings.Join(parts, ":")
	}
}

// ExtractorByName возвращает extractor по имени из конфигурации
func ExtractorByName(name string) KeyExtractor {
	switch name {
	case "route":
		return RouteKeyExtractor
	case "client":
		return ClientKeyExtractor
	case "ip", "":
		return IPKeyExtractor
	default:
		return IPKeyExtractor
	}
}

// RateLimitedRoutes хранит переопределения лимитов для отдельных маршрутов.
// Дорогие операции (solve, generate) ограничиваются жёстче дешёвых чтений.
type RateLimitedRoutes struct {
	mu            sync.RWMutex
	routes        map[string]*Config
	defaultConfig *Config
}

// NewRateLimitedRoutes создаёт конфигурацию маршрутов
func NewRateLimitedRoutes(defaultCfg *Config) *RateLimitedRoutes {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return &RateLimitedRoutes{
		routes:        make(map[string]*Config),
		defaultConfig: defaultCfg,
	}
}

// Set устанавливает лимит для маршрута
func (r *RateLimitedRoutes) Set(route string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = cfg
}

// Get возвращает конфигурацию для маршрута
func (r *RateLimitedRoutes) Get(route string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.routes[route]; ok {
		return cfg
	}
	return r.defaultConfig
}
