package cache

import (
	"context"
	"testing"
	"time"

	"flownet/pkg/config"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Backend != BackendMemory {
		t.Errorf("expected backend 'memory', got %s", opts.Backend)
	}
	if opts.DefaultTTL != 5*time.Minute {
		t.Errorf("expected default TTL 5m, got %v", opts.DefaultTTL)
	}
	if opts.MaxEntries != 100000 {
		t.Errorf("expected max entries 100000, got %d", opts.MaxEntries)
	}
	if opts.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr 'localhost:6379', got %s", opts.RedisAddr)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.CacheConfig{
		Driver:     "redis",
		Host:       "redis.local",
		Port:       6380,
		Password:   "secret",
		DB:         1,
		DefaultTTL: 10 * time.Minute,
		MaxEntries: 50000,
	}

	opts := FromConfig(cfg)

	if opts.Backend != BackendRedis {
		t.Errorf("expected backend 'redis', got %s", opts.Backend)
	}
	if opts.DefaultTTL != 10*time.Minute {
		t.Errorf("expected TTL 10m, got %v", opts.DefaultTTL)
	}
	if opts.RedisAddr != "redis.local:6380" {
		t.Errorf("expected addr 'redis.local:6380', got %s", opts.RedisAddr)
	}
	if opts.RedisPassword != "secret" {
		t.Errorf("expected password 'secret', got %s", opts.RedisPassword)
	}
	if opts.RedisDB != 1 {
		t.Errorf("expected db 1, got %d", opts.RedisDB)
	}
}

// TestNew_BackendSelection проверяет выбор бэкенда: memory по умолчанию,
// неизвестное имя тоже откатывается на memory.
func TestNew_BackendSelection(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
	}{
		{name: "memory", opts: &Options{Backend: BackendMemory}},
		{name: "empty backend", opts: &Options{}},
		{name: "nil options", opts: nil},
		{name: "unknown backend", opts: &Options{Backend: "memcached"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			defer c.Close()

			if _, ok := c.(*MemoryCache); !ok {
				t.Errorf("expected *MemoryCache, got %T", c)
			}
		})
	}
}

// TestNew_MemoryRoundTrip проверяет, что созданный кэш сразу пригоден
// для хранения сериализованных результатов расчёта.
func TestNew_MemoryRoundTrip(t *testing.T) {
	c, err := New(&Options{Backend: BackendMemory, DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := "solve:v1:abc123"
	payload := []byte(`{"max_flow":13}`)

	if err := c.Set(ctx, key, payload, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %s, got %s", payload, got)
	}
}

func TestMustNew(t *testing.T) {
	c := MustNew(&Options{Backend: BackendMemory})
	if c == nil {
		t.Fatal("expected cache to be non-nil")
	}
	c.Close()
}
