package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/analysis"
	"flownet/services/flow-svc/internal/engine"
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

// benchReportData решает плотную сеть и собирает полные данные отчёта
func benchReportData(b *testing.B, nodes int) *ReportData {
	b.Helper()

	net, err := domain.NewNetwork(denseBenchSpec(nodes))
	if err != nil {
		b.Fatalf("failed to build network: %v", err)
	}
	res := engine.Solve(context.Background(), net, engine.DefaultOptions().WithRecordPaths(true))
	if res.Status != engine.StatusOptimal {
		b.Fatalf("solve did not converge: %v", res.Err)
	}

	paths := make([]Path, 0, len(res.Paths))
	for _, p := range res.Paths {
		names := make([]string, len(p.Nodes))
		for i, v := range p.Nodes {
			names[i] = net.Name(v)
		}
		paths = append(paths, Path{Nodes: names, Flow: p.Flow})
	}

	return &ReportData{
		Title:       "Benchmark report",
		RunID:       "bench-run",
		GeneratedAt: time.Now(),
		Network:     net.Spec(),
		Statistics:  domain.CalculateNetworkStatistics(net),
		MaxFlow:     res.MaxFlow,
		Status:      string(engine.StatusOptimal),
		Iterations:  res.Iterations,
		DurationMs:  res.Duration.Milliseconds(),
		Flows:       analysis.FlowDetails(net, res.Residual),
		MinCut:      analysis.ComputeMinCut(net, res.Residual),
		Summary:     analysis.Summarize(net, res.Residual, res.Iterations),
		Paths:       paths,
	}
}

func BenchmarkGenerate_Formats(b *testing.B) {
	data := benchReportData(b, 32)
	ctx := context.Background()

	for _, format := range Formats() {
		b.Run(string(format), func(b *testing.B) {
			gen, err := New(format)
			if err != nil {
				b.Fatalf("no generator: %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := gen.Generate(ctx, data); err != nil {
					b.Fatalf("generate failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkGenerate_JSON_Sizes(b *testing.B) {
	gen := NewJSONGenerator()
	ctx := context.Background()

	sizes := []int{16, 32, 64}
	for _, size := range sizes {
		data := benchReportData(b, size)
		b.Run(fmt.Sprintf("nodes_%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				gen.Generate(ctx, data)
			}
		})
	}
}

func BenchmarkGenerate_CSV_Sizes(b *testing.B) {
	gen := NewCSVGenerator()
	ctx := context.Background()

	sizes := []int{16, 32, 64}
	for _, size := range sizes {
		data := benchReportData(b, size)
		b.Run(fmt.Sprintf("nodes_%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				gen.Generate(ctx, data)
			}
		})
	}
}
