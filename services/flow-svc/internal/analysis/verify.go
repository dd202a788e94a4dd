package analysis

import (
	"math"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/graph"
)

// Check validates the flow recovered from a terminal residual against the
// flow laws: capacity respect on every arc, conservation on every
// non-terminal node, and max-flow/min-cut duality.
//
// The engine's bookkeeping guarantees all three, so a failure here means
// corrupted state and is reported as a critical invariant violation. The
// service runs this as a post-condition on every optimal result; at the
// supported network sizes the check costs a few microseconds.
func Check(net *domain.Network, r *graph.Residual) error {
	n := net.NodeCount()
	flow := ComputeFlow(net, r)

	for u := 0; u < n; u++ {
		for _, v := range net.Successors(u) {
			if flow[u][v] < 0 || flow[u][v] > net.Capacity(u, v)+domain.Epsilon {
				return apperror.NewCritical(apperror.CodeFlowViolation,
					"recovered flow violates arc capacity").
					WithDetails("from", net.Name(u)).
					WithDetails("to", net.Name(v)).
					WithDetails("flow", flow[u][v]).
					WithDetails("capacity", net.Capacity(u, v))
			}
		}
	}

	for u := 0; u < n; u++ {
		if u == net.Source() || u == net.Sink() {
			continue
		}
		in, out := 0.0, 0.0
		for v := 0; v < n; v++ {
			in += flow[v][u]
			out += flow[u][v]
		}
		if math.Abs(in-out) > domain.Epsilon {
			return apperror.NewCritical(apperror.CodeFlowViolation,
				"flow is not conserved at an internal node").
				WithDetails("node", net.Name(u)).
				WithDetails("inflow", in).
				WithDetails("outflow", out)
		}
	}

	total := TotalFlow(net, r)
	if cut := ComputeMinCut(net, r); !domain.FloatEquals(total, cut.Capacity) {
		return apperror.NewCritical(apperror.CodeFlowViolation,
			"flow value does not match the induced cut capacity").
			WithDetails("flow", total).
			WithDetails("cut_capacity", cut.Capacity)
	}

	return nil
}
