package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

func TestCheck_PassesOnSolvedNetworks(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []string
		edges  []domain.Edge
		source string
		sink   string
	}{
		{
			name:  "diamond",
			nodes: []string{"A", "B", "C", "D"},
			edges: []domain.Edge{
				{From: "A", To: "B", Capacity: 10},
				{From: "A", To: "C", Capacity: 5},
				{From: "B", To: "D", Capacity: 8},
				{From: "C", To: "D", Capacity: 10},
			},
			source: "A",
			sink:   "D",
		},
		{
			name:   "single_edge",
			nodes:  []string{"S", "T"},
			edges:  []domain.Edge{{From: "S", To: "T", Capacity: 7}},
			source: "S",
			sink:   "T",
		},
		{
			name:  "disconnected",
			nodes: []string{"A", "B", "C", "D"},
			edges: []domain.Edge{
				{From: "A", To: "B", Capacity: 5},
				{From: "C", To: "D", Capacity: 5},
			},
			source: "A",
			sink:   "D",
		},
		{
			name:  "anti_parallel",
			nodes: []string{"S", "X", "Y", "T"},
			edges: []domain.Edge{
				{From: "S", To: "X", Capacity: 10},
				{From: "X", To: "Y", Capacity: 10},
				{From: "Y", To: "X", Capacity: 3},
				{From: "Y", To: "T", Capacity: 10},
			},
			source: "S",
			sink:   "T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := buildNetwork(t, tt.nodes, tt.edges, tt.source, tt.sink)
			r := solved(t, net)

			assert.NoError(t, Check(net, r))
		})
	}
}

func TestCheck_DetectsCapacityViolation(t *testing.T) {
	net := diamond(t)
	r := solved(t, net)

	// Force the recovered flow on A→B above its capacity by draining the
	// residual entry below zero's worth of headroom.
	u, _ := net.Index("A")
	v, _ := net.Index("B")
	r.Row(u)[v] = -5

	err := Check(net, r)
	require.Error(t, err)
	assert.True(t, apperror.IsInvariantViolation(err))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeFlowViolation, appErr.Code)
}

func TestCheck_DetectsConservationViolation(t *testing.T) {
	net := diamond(t)
	r := solved(t, net)

	// Pretend B absorbed two units: inflow stays at 8 while outflow drops
	// to 6, breaking conservation at an internal node.
	b, _ := net.Index("B")
	d, _ := net.Index("D")
	r.Row(b)[d] += 2

	err := Check(net, r)
	require.Error(t, err)
	assert.True(t, apperror.IsInvariantViolation(err))
}

func TestCheck_Idempotent(t *testing.T) {
	net := diamond(t)
	r := solved(t, net)

	require.NoError(t, Check(net, r))
	require.NoError(t, Check(net, r))

	// The check does not perturb the residual it inspects.
	assert.InDelta(t, 13.0, TotalFlow(net, r), domain.Epsilon)
}
