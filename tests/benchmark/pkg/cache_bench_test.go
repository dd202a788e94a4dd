package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flownet/pkg/cache"
)

func BenchmarkMemoryCache_Set(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	value := make([]byte, 1024) // 1KB value

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i%10000), value, time.Minute)
	}
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "benchmark-key", []byte("benchmark-value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(ctx, "benchmark-key")
	}
}

func BenchmarkMemoryCache_SetGet(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	value := []byte("test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i%1000)
		c.Set(ctx, key, value, time.Minute)
		c.Get(ctx, key)
	}
}

func BenchmarkMemoryCache_Concurrent(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	value := []byte("test-value")

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%1000)
			if i%2 == 0 {
				c.Set(ctx, key, value, time.Minute)
			} else {
				c.Get(ctx, key)
			}
			i++
		}
	})
}

func BenchmarkMemoryCache_DeleteByPattern(b *testing.B) {
	ctx := context.Background()
	value := []byte("test-value")

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		c := cache.NewMemoryCache(nil)
		for j := 0; j < 1000; j++ {
			c.Set(ctx, fmt.Sprintf("solve:%d", j), value, time.Minute)
		}
		b.StartTimer()

		c.DeleteByPattern(ctx, "solve:*")

		b.StopTimer()
		c.Close()
		b.StartTimer()
	}
}

func BenchmarkSolveCache_Set(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	sc := cache.NewSolveCache(c, time.Hour)
	spec := chainSpec(16)
	result := &cache.CachedSolveResult{
		MaxFlow:    100,
		Status:     "optimal",
		Iterations: 12,
		ComputedAt: time.Now(),
	}

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc.Set(ctx, &spec, "edmonds_karp", result, time.Hour)
	}
}

func BenchmarkSolveCache_Get(b *testing.B) {
	c := cache.NewMemoryCache(nil)
	defer c.Close()

	sc := cache.NewSolveCache(c, time.Hour)
	spec := chainSpec(16)
	result := &cache.CachedSolveResult{MaxFlow: 100, Status: "optimal", ComputedAt: time.Now()}

	ctx := context.Background()
	sc.Set(ctx, &spec, "edmonds_karp", result, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc.Get(ctx, &spec, "edmonds_karp")
	}
}
