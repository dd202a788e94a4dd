package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flownet/pkg/domain"
)

// SolveCache специализированный кэш для результатов вычисления потока
type SolveCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolveResult кэшированный результат вычисления
type CachedSolveResult struct {
	MaxFlow           float64          `json:"max_flow"`
	Status            string           `json:"status"`
	Iterations        int              `json:"iterations"`
	ComputationTimeMs float64          `json:"computation_time_ms"`
	FlowEdges         []*FlowEdgeCache `json:"flow_edges,omitempty"`
	CutEdges          []*CutEdgeCache  `json:"cut_edges,omitempty"`
	MinCutCapacity    float64          `json:"min_cut_capacity"`
	ComputedAt        time.Time        `json:"computed_at"`
}

// FlowEdgeCache кэшированное ребро с потоком
type FlowEdgeCache struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Flow        float64 `json:"flow"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"`
	Saturated   bool    `json:"saturated"`
}

// CutEdgeCache кэшированное ребро минимального разреза
type CutEdgeCache struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
}

// NewSolveCache создаёт кэш для результатов вычисления
func NewSolveCache(cache Cache, defaultTTL time.Duration) *SolveCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolveCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает кэшированный результат для сети и алгоритма
func (sc *SolveCache) Get(ctx context.Context, spec *domain.NetworkSpec, algorithm string) (*CachedSolveResult, bool, error) {
	networkHash := NetworkHash(spec)
	key := BuildSolveKey(networkHash, algorithm)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolveResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат в кэш
func (sc *SolveCache) Set(ctx context.Context, spec *domain.NetworkSpec, algorithm string, result *CachedSolveResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	networkHash := NetworkHash(spec)
	key := BuildSolveKey(networkHash, algorithm)

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет кэш для сети
func (sc *SolveCache) Invalidate(ctx context.Context, spec *domain.NetworkSpec) error {
	networkHash := NetworkHash(spec)
	pattern := fmt.Sprintf("solve:*:%s", networkHash)
	_, err := sc.cache.DeleteByPattern(ctx, pattern)
	return err
}

// InvalidateAll удаляет весь кэш результатов
func (sc *SolveCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}
