package services_benchmark

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	v1 "flownet/api/v1"
	"flownet/pkg/client"
	"flownet/pkg/domain"
	flowsvc "flownet/services/flow-svc"
)

var benchClient *client.Client

// init поднимает сервис в памяти: обработчики без middleware и хранилищ,
// клиент SDK поверх httptest
func init() {
	srv := httptest.NewServer(flowsvc.NewBenchmarkHandler())

	cfg := client.DefaultConfig()
	cfg.BaseURL = srv.URL
	benchClient = client.New(cfg)
}

// gridNetwork решётка n x n, исток в левом верхнем углу, сток в правом нижнем
func gridNetwork(n int) v1.Network {
	nodes := make([]string, 0, n*n)
	var edges []domain.Edge

	name := func(i, j int) string { return fmt.Sprintf("g%d_%d", i, j) }

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			nodes = append(nodes, name(i, j))

			if j < n-1 {
				edges = append(edges, domain.Edge{
					From: name(i, j), To: name(i, j+1), Capacity: 10,
				})
			}
			if i < n-1 {
				edges = append(edges, domain.Edge{
					From: name(i, j), To: name(i+1, j), Capacity: 10,
				})
			}
		}
	}

	return v1.Network{
		Nodes:  nodes,
		Edges:  edges,
		Source: name(0, 0),
		Sink:   name(n-1, n-1),
	}
}

func BenchmarkSolve_HTTP(b *testing.B) {
	grids := []int{2, 3, 4}

	for _, n := range grids {
		b.Run(fmt.Sprintf("grid_%dx%d", n, n), func(b *testing.B) {
			req := &v1.SolveRequest{Network: gridNetwork(n)}
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := benchClient.Solve(ctx, req); err != nil {
					b.Fatalf("solve failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkSolve_HTTP_WithDetails(b *testing.B) {
	req := &v1.SolveRequest{
		Network: gridNetwork(4),
		Options: &v1.SolveOptions{IncludeDetails: true, RecordPaths: true},
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := benchClient.Solve(ctx, req); err != nil {
			b.Fatalf("solve failed: %v", err)
		}
	}
}

func BenchmarkSolve_HTTP_Parallel(b *testing.B) {
	req := &v1.SolveRequest{Network: gridNetwork(3)}
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := benchClient.Solve(ctx, req); err != nil {
				b.Fatalf("solve failed: %v", err)
			}
		}
	})
}

func BenchmarkSolverInfo_HTTP(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := benchClient.SolverInfo(ctx); err != nil {
			b.Fatalf("solver info failed: %v", err)
		}
	}
}
