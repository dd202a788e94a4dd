package analysis

import (
	"context"
	"fmt"
	"testing"

	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/engine"
	"flownet/services/flow-svc/internal/graph"
)

// denseBenchSpec сеть с прямыми рёбрами к ближайшим восьми соседям
func denseBenchSpec(nodes int) domain.NetworkSpec {
	spec := domain.NetworkSpec{
		Nodes:    make([]string, 0, nodes),
		MaxNodes: nodes,
	}
	for i := 0; i < nodes; i++ {
		spec.Nodes = append(spec.Nodes, fmt.Sprintf("n%d", i))
	}
	for i := 0; i < nodes; i++ {
		for j := i + 1; j < nodes && j <= i+8; j++ {
			spec.Edges = append(spec.Edges, domain.Edge{
				From: spec.Nodes[i], To: spec.Nodes[j], Capacity: float64(1 + (i+j)%10),
			})
		}
	}
	spec.Source = spec.Nodes[0]
	spec.Sink = spec.Nodes[nodes-1]
	return spec
}

// solvedResidual доводит плотную сеть до оптимума и отдаёт её остаточное
// состояние для замеров анализа
func solvedResidual(b *testing.B, nodes int) (*domain.Network, *graph.Residual, int) {
	b.Helper()

	net, err := domain.NewNetwork(denseBenchSpec(nodes))
	if err != nil {
		b.Fatalf("failed to build network: %v", err)
	}
	res := engine.Solve(context.Background(), net, nil)
	if res.Status != engine.StatusOptimal {
		b.Fatalf("solve did not converge: %v", res.Err)
	}
	return net, res.Residual, res.Iterations
}

func BenchmarkComputeFlow(b *testing.B) {
	net, r, _ := solvedResidual(b, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeFlow(net, r)
	}
}

func BenchmarkFlowDetails(b *testing.B) {
	sizes := []int{16, 32, 64}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("nodes_%d", size), func(b *testing.B) {
			net, r, _ := solvedResidual(b, size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				FlowDetails(net, r)
			}
		})
	}
}

func BenchmarkComputeMinCut(b *testing.B) {
	sizes := []int{16, 32, 64}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("nodes_%d", size), func(b *testing.B) {
			net, r, _ := solvedResidual(b, size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ComputeMinCut(net, r)
			}
		})
	}
}

func BenchmarkSummarize(b *testing.B) {
	net, r, iters := solvedResidual(b, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Summarize(net, r, iters)
	}
}

func BenchmarkCheck(b *testing.B) {
	net, r, _ := solvedResidual(b, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Check(net, r)
	}
}
