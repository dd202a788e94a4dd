package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flownet/pkg/domain"
)

func TestSummarize_Diamond(t *testing.T) {
	net := diamond(t)
	r := solved(t, net)

	s := Summarize(net, r, 2)

	assert.InDelta(t, 13.0, s.MaxFlow, domain.Epsilon)
	assert.Equal(t, 2, s.Augmentations)
	assert.Equal(t, 4, s.NodeCount)
	assert.Equal(t, 4, s.EdgeCount)
	assert.Equal(t, 2, s.SaturatedEdges, "A→C and B→D run at capacity")

	assert.InDelta(t, 15.0, s.SourceOutCapacity, domain.Epsilon)
	assert.InDelta(t, 18.0, s.SinkInCapacity, domain.Epsilon)

	// (80 + 100 + 100 + 50) / 4
	assert.InDelta(t, 82.5, s.AverageUtilization, domain.Epsilon)

	require.NotNil(t, s.SourceEfficiency)
	require.NotNil(t, s.SinkEfficiency)
	assert.InDelta(t, 13.0/15.0, *s.SourceEfficiency, domain.Epsilon)
	assert.InDelta(t, 13.0/18.0, *s.SinkEfficiency, domain.Epsilon)
}

func TestSummarize_NilEfficiencyWhenNoSourceCapacity(t *testing.T) {
	// The source has no outgoing edges, so the source efficiency ratio has
	// a zero denominator and must be the nil sentinel, never a division.
	net := buildNetwork(t,
		[]string{"S", "A", "T"},
		[]domain.Edge{{From: "A", To: "T", Capacity: 5}},
		"S", "T",
	)
	r := solved(t, net)

	s := Summarize(net, r, 0)

	assert.Zero(t, s.MaxFlow)
	assert.Nil(t, s.SourceEfficiency, "zero denominator renders as N/A")
	require.NotNil(t, s.SinkEfficiency)
	assert.Zero(t, *s.SinkEfficiency)
}

func TestSummarize_NilEfficiencyWhenNoSinkCapacity(t *testing.T) {
	net := buildNetwork(t,
		[]string{"S", "A", "T"},
		[]domain.Edge{{From: "S", To: "A", Capacity: 5}},
		"S", "T",
	)
	r := solved(t, net)

	s := Summarize(net, r, 0)

	assert.Zero(t, s.MaxFlow)
	require.NotNil(t, s.SourceEfficiency)
	assert.Zero(t, *s.SourceEfficiency)
	assert.Nil(t, s.SinkEfficiency)
}

func TestSummarize_SingleEdgeFullUtilization(t *testing.T) {
	net := buildNetwork(t,
		[]string{"S", "T"},
		[]domain.Edge{{From: "S", To: "T", Capacity: 7}},
		"S", "T",
	)
	r := solved(t, net)

	s := Summarize(net, r, 1)

	assert.InDelta(t, 7.0, s.MaxFlow, domain.Epsilon)
	assert.Equal(t, 1, s.SaturatedEdges)
	assert.InDelta(t, 100.0, s.AverageUtilization, domain.Epsilon)

	require.NotNil(t, s.SourceEfficiency)
	assert.InDelta(t, 1.0, *s.SourceEfficiency, domain.Epsilon)
	require.NotNil(t, s.SinkEfficiency)
	assert.InDelta(t, 1.0, *s.SinkEfficiency, domain.Epsilon)
}

func TestSummarize_Disconnected(t *testing.T) {
	net := buildNetwork(t,
		[]string{"A", "B", "C", "D"},
		[]domain.Edge{
			{From: "A", To: "B", Capacity: 5},
			{From: "C", To: "D", Capacity: 5},
		},
		"A", "D",
	)
	r := solved(t, net)

	s := Summarize(net, r, 0)

	assert.Zero(t, s.MaxFlow)
	assert.Zero(t, s.SaturatedEdges)
	assert.Zero(t, s.AverageUtilization)

	require.NotNil(t, s.SourceEfficiency)
	assert.Zero(t, *s.SourceEfficiency)
}
