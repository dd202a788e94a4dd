package cache

import (
	"context"
	"testing"
	"time"

	"flownet/pkg/domain"
)

func testNetworkSpec() *domain.NetworkSpec {
	return &domain.NetworkSpec{
		Nodes:  []string{"A", "B", "C"},
		Source: "A",
		Sink:   "C",
		Edges: []domain.Edge{
			{From: "A", To: "B", Capacity: 10},
			{From: "B", To: "C", Capacity: 10},
		},
	}
}

func TestSolveCache_SetGet(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	result := &CachedSolveResult{
		MaxFlow:           10,
		Status:            "optimal",
		Iterations:        5,
		ComputationTimeMs: 1.5,
		FlowEdges: []*FlowEdgeCache{
			{From: "A", To: "B", Flow: 10, Capacity: 10, Utilization: 1.0, Saturated: true},
			{From: "B", To: "C", Flow: 10, Capacity: 10, Utilization: 1.0, Saturated: true},
		},
		CutEdges: []*CutEdgeCache{
			{From: "A", To: "B", Capacity: 10},
		},
		MinCutCapacity: 10,
	}

	// Set
	err := solveCache.Set(ctx, spec, "edmonds-karp", result, 0)
	if err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	// Get
	got, found, err := solveCache.Get(ctx, spec, "edmonds-karp")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached result")
	}

	if got.MaxFlow != result.MaxFlow {
		t.Errorf("expected max flow %f, got %f", result.MaxFlow, got.MaxFlow)
	}
	if got.MinCutCapacity != result.MinCutCapacity {
		t.Errorf("expected min cut capacity %f, got %f", result.MinCutCapacity, got.MinCutCapacity)
	}
	if len(got.FlowEdges) != 2 {
		t.Errorf("expected 2 flow edges, got %d", len(got.FlowEdges))
	}
	if len(got.CutEdges) != 1 {
		t.Errorf("expected 1 cut edge, got %d", len(got.CutEdges))
	}
	if got.ComputedAt.IsZero() {
		t.Error("expected ComputedAt to be stamped on Set")
	}
}

func TestSolveCache_GetNotFound(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	result, found, err := solveCache.Get(ctx, spec, "edmonds-karp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
	if result != nil {
		t.Error("expected nil result")
	}
}

func TestSolveCache_DifferentAlgorithm(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	result := &CachedSolveResult{MaxFlow: 10}

	// Set for one algorithm
	solveCache.Set(ctx, spec, "edmonds-karp", result, 0)

	// Try to get for different algorithm
	_, found, _ := solveCache.Get(ctx, spec, "dinic")
	if found {
		t.Error("should not find result for different algorithm")
	}
}

func TestSolveCache_DifferentNetwork(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	other := testNetworkSpec()
	other.Edges[0].Capacity = 42

	solveCache.Set(ctx, spec, "edmonds-karp", &CachedSolveResult{MaxFlow: 10}, 0)

	_, found, _ := solveCache.Get(ctx, other, "edmonds-karp")
	if found {
		t.Error("should not find result for different network")
	}
}

func TestSolveCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	result := &CachedSolveResult{MaxFlow: 10}

	// Same network cached under two algorithms
	solveCache.Set(ctx, spec, "edmonds-karp", result, 0)
	solveCache.Set(ctx, spec, "dinic", result, 0)

	// Invalidate
	err := solveCache.Invalidate(ctx, spec)
	if err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	// Both should be gone
	_, found1, _ := solveCache.Get(ctx, spec, "edmonds-karp")
	_, found2, _ := solveCache.Get(ctx, spec, "dinic")

	if found1 || found2 {
		t.Error("expected cache to be invalidated")
	}
}

func TestSolveCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()

	spec1 := testNetworkSpec()
	spec2 := testNetworkSpec()
	spec2.Edges[1].Capacity = 3

	result := &CachedSolveResult{MaxFlow: 10}

	solveCache.Set(ctx, spec1, "edmonds-karp", result, 0)
	solveCache.Set(ctx, spec2, "edmonds-karp", result, 0)

	count, err := solveCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("failed to invalidate all: %v", err)
	}

	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}

func TestSolveCache_CorruptedEntry(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	solveCache := NewSolveCache(memCache, 5*time.Minute)

	ctx := context.Background()
	spec := testNetworkSpec()

	// Пишем мусор напрямую под ключ результата
	key := BuildSolveKey(NetworkHash(spec), "edmonds-karp")
	if err := memCache.Set(ctx, key, []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("failed to seed corrupted entry: %v", err)
	}

	got, found, err := solveCache.Get(ctx, spec, "edmonds-karp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || got != nil {
		t.Error("corrupted entry must be treated as a miss")
	}

	// Повреждённая запись должна быть удалена
	if _, err := memCache.Get(ctx, key); err != ErrKeyNotFound {
		t.Errorf("expected corrupted entry to be evicted, got err=%v", err)
	}
}
