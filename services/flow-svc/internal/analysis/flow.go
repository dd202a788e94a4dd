// Package analysis derives reports from a finished flow computation.
//
// Every function here is a pure, read-only view over the pair (network,
// terminal residual matrix): calling one any number of times after the
// engine reaches Done yields identical results and never mutates either
// input.
package analysis

import (
	"sort"
	"strconv"

	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/graph"
)

// FlowOn recovers the flow pushed along the original arc u→v.
//
// Pushed flow is the consumed part of the arc's capacity. The difference is
// floored at zero because an anti-parallel partner arc raises the residual
// entry above the arc's own unused capacity; without the floor such arcs
// would report negative flow.
func FlowOn(net *domain.Network, r *graph.Residual, u, v int) float64 {
	if !net.HasEdge(u, v) {
		return 0
	}
	f := net.Capacity(u, v) - r.Capacity(u, v)
	if f < 0 {
		return 0
	}
	return f
}

// ComputeFlow returns the full flow matrix recovered from the terminal
// residual: entry (u, v) is the flow on the original arc u→v, zero wherever
// the network has no such arc.
func ComputeFlow(net *domain.Network, r *graph.Residual) [][]float64 {
	n := net.NodeCount()
	flow := make([][]float64, n)
	for u := 0; u < n; u++ {
		flow[u] = make([]float64, n)
		for _, v := range net.Successors(u) {
			flow[u][v] = FlowOn(net, r, u, v)
		}
	}
	return flow
}

// TotalFlow returns the net outflow of the source, which for a terminal
// residual equals the value of the computed flow.
func TotalFlow(net *domain.Network, r *graph.Residual) float64 {
	source := net.Source()
	total := 0.0
	for _, v := range net.Successors(source) {
		total += FlowOn(net, r, source, v)
	}
	for _, v := range net.Predecessors(source) {
		total -= FlowOn(net, r, v, source)
	}
	return total
}

// EdgeFlow is one row of the per-edge flow report.
type EdgeFlow struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Capacity    float64 `json:"capacity"`
	Flow        float64 `json:"flow"`
	Residual    float64 `json:"residual"`
	Utilization float64 `json:"utilization"`
	Saturated   bool    `json:"saturated"`
	CutEdge     bool    `json:"cut_edge"`
}

// FlowDetails builds the per-edge report: one row per original edge with its
// flow, unused capacity, utilization percentage, saturation flag and whether
// the edge crosses the minimum cut.
//
// Rows are sorted by origin then destination using a numeric-aware key, so
// node "2" sorts before node "10".
func FlowDetails(net *domain.Network, r *graph.Residual) []EdgeFlow {
	side := graph.Reachable(r, net.Source())

	rows := make([]EdgeFlow, 0, net.EdgeCount())
	for _, e := range net.Edges() {
		u, _ := net.Index(e.From)
		v, _ := net.Index(e.To)
		f := FlowOn(net, r, u, v)

		utilization := 0.0
		if e.Capacity > domain.Epsilon {
			utilization = f / e.Capacity * 100
		}

		rows = append(rows, EdgeFlow{
			From:        e.From,
			To:          e.To,
			Capacity:    e.Capacity,
			Flow:        f,
			Residual:    e.Capacity - f,
			Utilization: utilization,
			Saturated:   isSaturated(f, e.Capacity),
			CutEdge:     side[u] && !side[v],
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].From != rows[j].From {
			return lessNodeKey(rows[i].From, rows[j].From)
		}
		return lessNodeKey(rows[i].To, rows[j].To)
	})

	return rows
}

// isSaturated reports whether the arc carries its full capacity.
// Zero-capacity arcs are never saturated.
func isSaturated(flow, capacity float64) bool {
	return capacity > domain.Epsilon && domain.FloatEquals(flow, capacity)
}

// lessNodeKey orders node names numerically when both parse as integers and
// lexicographically otherwise.
func lessNodeKey(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
