package analysis

import (
	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/graph"
)

// CutEdge is an original edge crossing the minimum cut from the source side
// to the sink side.
type CutEdge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Capacity float64 `json:"capacity"`
}

// MinCut is a partition of the nodes certifying the maximality of a flow.
//
// By max-flow/min-cut duality, Capacity equals the value of the maximum
// flow; the service asserts this equality as a post-condition of every
// computation.
type MinCut struct {
	// SourceSide and SinkSide list node names in canonical network order.
	// The source is always in SourceSide; on a terminal residual the sink is
	// always in SinkSide.
	SourceSide []string `json:"source_side"`
	SinkSide   []string `json:"sink_side"`

	// Edges are the original edges leaving SourceSide; Capacity is the sum
	// of their capacities.
	Edges    []CutEdge `json:"edges"`
	Capacity float64   `json:"capacity"`
}

// ComputeMinCut derives the minimum cut from the terminal residual matrix.
//
// The source side is everything still reachable from the source over arcs
// with positive residual capacity; on a terminal residual the sink is
// unreachable, so the partition is proper. A disconnected network yields
// flow 0 with no crossing edges and cut capacity 0.
func ComputeMinCut(net *domain.Network, r *graph.Residual) *MinCut {
	side := graph.Reachable(r, net.Source())

	cut := &MinCut{
		SourceSide: make([]string, 0, net.NodeCount()),
		SinkSide:   make([]string, 0),
		Edges:      make([]CutEdge, 0),
	}

	for i := 0; i < net.NodeCount(); i++ {
		if side[i] {
			cut.SourceSide = append(cut.SourceSide, net.Name(i))
		} else {
			cut.SinkSide = append(cut.SinkSide, net.Name(i))
		}
	}

	for _, e := range net.Edges() {
		u, _ := net.Index(e.From)
		v, _ := net.Index(e.To)
		if side[u] && !side[v] {
			cut.Edges = append(cut.Edges, CutEdge{From: e.From, To: e.To, Capacity: e.Capacity})
			cut.Capacity += e.Capacity
		}
	}

	return cut
}
