package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flownet/pkg/domain"
)

func TestQueue(t *testing.T) {
	q := NewQueue(4)

	if !q.Empty() {
		t.Error("new queue should be empty")
	}
	if q.Len() != 0 {
		t.Errorf("new queue length = %d, want 0", q.Len())
	}

	q.Push(1)
	q.Push(2)
	q.Push(3)

	if q.Len() != 3 {
		t.Errorf("queue length = %d, want 3", q.Len())
	}

	// FIFO order.
	if v := q.Pop(); v != 1 {
		t.Errorf("first Pop = %d, want 1", v)
	}
	if v := q.Pop(); v != 2 {
		t.Errorf("second Pop = %d, want 2", v)
	}

	q.Push(4)
	if v := q.Pop(); v != 3 {
		t.Errorf("third Pop = %d, want 3", v)
	}
	if v := q.Pop(); v != 4 {
		t.Errorf("fourth Pop = %d, want 4", v)
	}

	if !q.Empty() {
		t.Error("queue should be empty after draining")
	}
}

func TestQueue_Reset(t *testing.T) {
	q := NewQueue(2)
	q.Push(10)
	q.Push(20)
	q.Pop()

	q.Reset()

	if !q.Empty() {
		t.Error("queue should be empty after Reset")
	}

	q.Push(30)
	if v := q.Pop(); v != 30 {
		t.Errorf("Pop after Reset = %d, want 30", v)
	}
}

func TestFindAugmentingPath(t *testing.T) {
	net := diamondNetwork(t)
	r := NewResidual(net)

	source, sink := net.Source(), net.Sink()
	res := FindAugmentingPath(r, source, sink)

	require.True(t, res.Found)
	assert.True(t, res.Visited[sink])

	path, err := ReconstructPath(res.Parent, source, sink)
	require.NoError(t, err)

	// Both A→B→D and A→C→D have two arcs; the index-ordered expansion must
	// pick the one through the lower-numbered intermediate node.
	assert.Equal(t, []int{idx(t, net, "A"), idx(t, net, "B"), idx(t, net, "D")}, path)
}

func TestFindAugmentingPath_PrefersFewestArcs(t *testing.T) {
	// A long detour with huge capacity must lose to the two-arc route:
	// BFS counts arcs, not capacity.
	net := testNetwork(t,
		[]string{"s", "a", "b", "c", "t"},
		[]domain.Edge{
			{From: "s", To: "a", Capacity: 100},
			{From: "a", To: "b", Capacity: 100},
			{From: "b", To: "c", Capacity: 100},
			{From: "c", To: "t", Capacity: 100},
			{From: "s", To: "c", Capacity: 1},
		},
		"s", "t",
	)
	r := NewResidual(net)

	res := FindAugmentingPath(r, net.Source(), net.Sink())
	require.True(t, res.Found)

	path, err := ReconstructPath(res.Parent, net.Source(), net.Sink())
	require.NoError(t, err)
	assert.Len(t, path, 3, "shortest route is s→c→t")
	assert.Equal(t, []int{idx(t, net, "s"), idx(t, net, "c"), idx(t, net, "t")}, path)
}

func TestFindAugmentingPath_SkipsExhaustedArcs(t *testing.T) {
	net := diamondNetwork(t)
	r := NewResidual(net)

	a := idx(t, net, "A")
	b := idx(t, net, "B")
	c := idx(t, net, "C")
	d := idx(t, net, "D")

	// Saturate the route through B; the next search must detour through C.
	require.NoError(t, r.ApplyAugmentation([]int{a, b, d}, 8))

	res := FindAugmentingPath(r, a, d)
	require.True(t, res.Found)

	path, err := ReconstructPath(res.Parent, a, d)
	require.NoError(t, err)
	assert.Equal(t, []int{a, c, d}, path)

	// Saturate that too; no route remains.
	require.NoError(t, r.ApplyAugmentation(path, 5))

	res = FindAugmentingPath(r, a, d)
	assert.False(t, res.Found)
	assert.False(t, res.Visited[d])
}

func TestFindAugmentingPath_Deterministic(t *testing.T) {
	net := diamondNetwork(t)

	first := ""
	for i := 0; i < 50; i++ {
		r := NewResidual(net)
		res := FindAugmentingPath(r, net.Source(), net.Sink())
		require.True(t, res.Found)

		path, err := ReconstructPath(res.Parent, net.Source(), net.Sink())
		require.NoError(t, err)

		got := pathKey(path)
		if first == "" {
			first = got
			continue
		}
		require.Equal(t, first, got, "run %d found a different path", i)
	}
}

func pathKey(path []int) string {
	key := ""
	for _, v := range path {
		key += string(rune('a' + v))
	}
	return key
}

func TestFindAugmentingPath_UsesReverseArcs(t *testing.T) {
	// Classic rerouting case: after pushing s→a→b→t, the only way to grow
	// the flow is through the reverse arc b→a opened by that push.
	net := testNetwork(t,
		[]string{"s", "a", "b", "t"},
		[]domain.Edge{
			{From: "s", To: "a", Capacity: 1},
			{From: "s", To: "b", Capacity: 1},
			{From: "a", To: "b", Capacity: 1},
			{From: "a", To: "t", Capacity: 1},
			{From: "b", To: "t", Capacity: 1},
		},
		"s", "t",
	)
	r := NewResidual(net)

	s := idx(t, net, "s")
	a := idx(t, net, "a")
	b := idx(t, net, "b")
	sink := idx(t, net, "t")

	require.NoError(t, r.ApplyAugmentation([]int{s, a, b, sink}, 1))

	res := FindAugmentingPath(r, s, sink)
	require.True(t, res.Found, "reverse arc must keep the sink reachable")

	path, err := ReconstructPath(res.Parent, s, sink)
	require.NoError(t, err)
	assert.Equal(t, []int{s, b, a, sink}, path)

	require.NoError(t, r.ApplyAugmentation(path, r.Bottleneck(path)))
	assert.False(t, FindAugmentingPath(r, s, sink).Found)
}

func TestFindAugmentingPathInto_ScratchReuse(t *testing.T) {
	net := diamondNetwork(t)
	r := NewResidual(net)
	scratch := NewScratch(net.NodeCount())

	res := FindAugmentingPathInto(r, net.Source(), net.Sink(), scratch)
	require.True(t, res.Found)

	path, err := ReconstructPath(res.Parent, net.Source(), net.Sink())
	require.NoError(t, err)
	require.NoError(t, r.ApplyAugmentation(path, r.Bottleneck(path)))

	// The second search reuses the same buffers and must not see stale
	// parents or visit marks from the first one.
	res = FindAugmentingPathInto(r, net.Source(), net.Sink(), scratch)
	require.True(t, res.Found)

	path, err = ReconstructPath(res.Parent, net.Source(), net.Sink())
	require.NoError(t, err)
	assert.Equal(t, []int{idx(t, net, "A"), idx(t, net, "C"), idx(t, net, "D")}, path)
}

func TestReachable(t *testing.T) {
	net := diamondNetwork(t)
	r := NewResidual(net)

	a := idx(t, net, "A")
	b := idx(t, net, "B")
	c := idx(t, net, "C")
	d := idx(t, net, "D")

	// On the initial residual everything is reachable from the source.
	all := Reachable(r, a)
	assert.Equal(t, []bool{true, true, true, true}, all)

	// Drive the network to max flow (13): A→B→D by 8, A→C→D by 5.
	require.NoError(t, r.ApplyAugmentation([]int{a, b, d}, 8))
	require.NoError(t, r.ApplyAugmentation([]int{a, c, d}, 5))

	// The terminal residual separates {A, B} from {C, D}.
	side := Reachable(r, a)
	assert.True(t, side[a])
	assert.True(t, side[b], "A→B keeps slack, B stays on the source side")
	assert.False(t, side[c])
	assert.False(t, side[d])
}

func TestReachable_OutOfRange(t *testing.T) {
	net := diamondNetwork(t)
	r := NewResidual(net)

	assert.Equal(t, []bool{false, false, false, false}, Reachable(r, -1))
	assert.Equal(t, []bool{false, false, false, false}, Reachable(r, 9))
}
