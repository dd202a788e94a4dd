// Package cache кэширует результаты расчётов потока: одинаковые сети
// не пересчитываются повторно. Поддерживает in-memory и Redis бэкенды
// за общим интерфейсом.
package cache

import (
	"context"
	"errors"
	"time"

	"flownet/pkg/config"
)

// Бэкенды кэша.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrKeyNotFound возвращается при промахе кэша.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed возвращается при операции над закрытым кэшем.
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache — общий интерфейс бэкендов кэша. Значения хранятся как байты,
// сериализацию решает вызывающий (SolveCache хранит JSON).
type Cache interface {
	// Get возвращает значение по ключу или ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение с TTL, перезаписывая существующий ключ.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetWithTTL возвращает значение вместе с остатком TTL.
	GetWithTTL(ctx context.Context, key string) (value []byte, ttl time.Duration, err error)

	// MGet возвращает найденные ключи; промахи в карту не попадают.
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	// MDelete возвращает число фактически удалённых ключей.
	MDelete(ctx context.Context, keys []string) (int64, error)

	// Keys возвращает ключи по шаблону. На больших кэшах дорого.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// DeleteByPattern удаляет ключи по шаблону. Используется при
	// инвалидации кэша расчётов администратором.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)

	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats — состояние и счётчики кэша.
type Stats struct {
	TotalKeys    int64
	Hits         int64
	Misses       int64
	HitRate      float64
	MemoryBytes  int64
	KeysByPrefix map[string]int64
	Backend      string
}

// Options — параметры создания кэша.
type Options struct {
	Backend    string // BackendMemory или BackendRedis
	DefaultTTL time.Duration

	// Только для in-memory бэкенда
	MaxEntries      int
	MaxMemoryBytes  int64
	CleanupInterval time.Duration

	// Только для Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions возвращает опции по умолчанию: in-memory кэш на 5 минут.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      5 * time.Minute,
		MaxEntries:      100000,
		MaxMemoryBytes:  256 * 1024 * 1024,
		CleanupInterval: 1 * time.Minute,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		RedisPoolSize:   10,
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		DefaultTTL:    cfg.DefaultTTL,
		MaxEntries:    cfg.MaxEntries,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New создаёт кэш на основе опций. Неизвестный бэкенд трактуется как memory.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	case BackendMemory, "":
		return NewMemoryCache(opts), nil
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew создаёт кэш или паникует
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
