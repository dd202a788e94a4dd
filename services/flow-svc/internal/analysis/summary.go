package analysis

import (
	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/graph"
)

// FlowSummary aggregates a finished computation for dashboards and reports.
type FlowSummary struct {
	MaxFlow       float64 `json:"max_flow"`
	Augmentations int     `json:"augmentations"`

	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	SaturatedEdges int `json:"saturated_edges"`

	SourceOutCapacity float64 `json:"source_out_capacity"`
	SinkInCapacity    float64 `json:"sink_in_capacity"`

	// AverageUtilization is the mean utilization percentage over edges with
	// positive capacity.
	AverageUtilization float64 `json:"average_utilization"`

	// SourceEfficiency is flow over source-outgoing capacity and
	// SinkEfficiency flow over sink-incoming capacity. Either is nil when
	// its denominator is zero; renderers show such values as "N/A" instead
	// of dividing by zero.
	SourceEfficiency *float64 `json:"source_efficiency"`
	SinkEfficiency   *float64 `json:"sink_efficiency"`
}

// Summarize computes the summary for a terminal residual.
// augmentations is the iteration count reported by the engine.
func Summarize(net *domain.Network, r *graph.Residual, augmentations int) *FlowSummary {
	s := &FlowSummary{
		MaxFlow:           TotalFlow(net, r),
		Augmentations:     augmentations,
		NodeCount:         net.NodeCount(),
		EdgeCount:         net.EdgeCount(),
		SourceOutCapacity: net.SourceOutCapacity(),
		SinkInCapacity:    net.SinkInCapacity(),
	}

	utilized := 0
	utilization := 0.0
	for _, e := range net.Edges() {
		u, _ := net.Index(e.From)
		v, _ := net.Index(e.To)
		f := FlowOn(net, r, u, v)

		if isSaturated(f, e.Capacity) {
			s.SaturatedEdges++
		}
		if e.Capacity > domain.Epsilon {
			utilized++
			utilization += f / e.Capacity * 100
		}
	}
	if utilized > 0 {
		s.AverageUtilization = utilization / float64(utilized)
	}

	s.SourceEfficiency = ratio(s.MaxFlow, s.SourceOutCapacity)
	s.SinkEfficiency = ratio(s.MaxFlow, s.SinkInCapacity)

	return s
}

// ratio returns num/den, or nil as the explicit "not applicable" sentinel
// when the denominator is zero.
func ratio(num, den float64) *float64 {
	if den <= domain.Epsilon {
		return nil
	}
	v := num / den
	return &v
}
