// Package graph provides data structures and utilities for maximum-flow computations.
package graph

import (
	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

// =============================================================================
// Constants
// =============================================================================

// Epsilon is the tolerance for floating-point comparisons.
// Residual capacities at or below Epsilon are treated as exhausted.
const Epsilon = domain.Epsilon

// Infinity represents unlimited capacity.
// Used as the starting value when scanning a path for its bottleneck.
const Infinity = domain.Infinity

// =============================================================================
// Residual Matrix
// =============================================================================

// Residual is the residual network of a flow computation, stored as a dense
// V×V matrix of remaining capacities.
//
// Entry (u, v) holds how much additional flow can still be pushed along the
// arc u→v. Initially it equals the network capacity of (u, v); pushing f units
// along u→v decreases entry (u, v) by f and increases the reverse entry (v, u)
// by f, which is what lets later iterations undo earlier routing decisions.
//
// Node counts are small (at most domain.MaxNetworkNodes), so the dense layout
// wins over adjacency structures: a whole matrix fits in a couple of cache
// lines and neighbor scans become a tight loop over a row.
//
// A Residual is NOT safe for concurrent use. Each computation owns its own
// instance; after the computation finishes the matrix is read-only input for
// reporting (flows, min-cut).
type Residual struct {
	n    int
	rows [][]float64
	buf  []float64 // backing storage for rows, one allocation of n*n entries
}

// NewResidual builds the initial residual matrix for the given network:
// every entry starts at the corresponding arc capacity and every absent arc
// (including all reverse directions) starts at zero.
func NewResidual(net *domain.Network) *Residual {
	r := NewResidualSize(net.NodeCount())
	r.Load(net)
	return r
}

// NewResidualSize allocates a zeroed n×n residual matrix.
// Used by the scratch pool; most callers want NewResidual.
func NewResidualSize(n int) *Residual {
	buf := make([]float64, n*n)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = buf[i*n : (i+1)*n : (i+1)*n]
	}
	return &Residual{n: n, rows: rows, buf: buf}
}

// Load resets the matrix to the initial residual state of net, resizing the
// backing storage when the node count differs from the current one.
func (r *Residual) Load(net *domain.Network) {
	n := net.NodeCount()
	if n != r.n {
		r.grow(n)
	}
	for i := range r.buf {
		r.buf[i] = 0
	}
	for u := 0; u < n; u++ {
		for _, v := range net.Successors(u) {
			r.rows[u][v] = net.Capacity(u, v)
		}
	}
}

// Size returns the number of nodes the matrix covers.
func (r *Residual) Size() int {
	return r.n
}

// Capacity returns the remaining capacity of the arc u→v.
// Out-of-range indices report zero, mirroring an absent arc.
func (r *Residual) Capacity(u, v int) float64 {
	if u < 0 || u >= r.n || v < 0 || v >= r.n {
		return 0
	}
	return r.rows[u][v]
}

// HasCapacity reports whether the arc u→v can still carry flow.
func (r *Residual) HasCapacity(u, v int) bool {
	return r.Capacity(u, v) > Epsilon
}

// Row exposes the residual capacities out of node u for tight traversal
// loops. The returned slice aliases internal storage and must not be
// modified or retained across an ApplyAugmentation call.
func (r *Residual) Row(u int) []float64 {
	return r.rows[u]
}

// =============================================================================
// Path Operations
// =============================================================================

// Bottleneck returns the minimum residual capacity along the path, i.e. the
// largest amount that can be pushed along it in one augmentation.
// Returns 0 for paths shorter than two nodes, for out-of-range indices, and
// for paths containing an exhausted arc.
func (r *Residual) Bottleneck(path []int) float64 {
	if len(path) < 2 {
		return 0
	}

	bottleneck := Infinity
	for i := 0; i < len(path)-1; i++ {
		c := r.Capacity(path[i], path[i+1])
		if c <= Epsilon {
			return 0
		}
		if c < bottleneck {
			bottleneck = c
		}
	}

	if bottleneck == Infinity {
		return 0
	}
	return bottleneck
}

// ApplyAugmentation pushes amount units of flow along the path, decreasing
// every forward entry and increasing every reverse entry by amount.
//
// The arguments are produced by the search phase of the same computation, so
// any violation here means the engine state is corrupt rather than that the
// user supplied bad input. All checks therefore return critical errors and
// the matrix is only mutated after the whole path has been validated: a
// failed call leaves the residual state untouched.
//
// Rejected with an invariant-violation error:
//   - paths shorter than two nodes or with out-of-range indices
//   - amount ≤ Epsilon (augmenting by nothing hides a broken search)
//   - amount exceeding the bottleneck of the path (would drive an entry negative)
func (r *Residual) ApplyAugmentation(path []int, amount float64) error {
	if len(path) < 2 {
		return apperror.NewCritical(apperror.CodeBrokenPath,
			"augmenting path must contain at least two nodes").
			WithDetails("path_len", len(path))
	}
	for _, v := range path {
		if v < 0 || v >= r.n {
			return apperror.NewCritical(apperror.CodeBrokenPath,
				"augmenting path references a node outside the network").
				WithDetails("node", v).
				WithDetails("nodes", r.n)
		}
	}
	if amount <= Epsilon {
		return apperror.NewCritical(apperror.CodeInvalidBottleneck,
			"augmentation amount must be strictly positive").
			WithDetails("amount", amount)
	}
	if bottleneck := r.Bottleneck(path); amount > bottleneck+Epsilon {
		return apperror.NewCritical(apperror.CodeFlowViolation,
			"augmentation amount exceeds path bottleneck").
			WithDetails("amount", amount).
			WithDetails("bottleneck", bottleneck)
	}

	for i := 0; i < len(path)-1; i++ {
		u, v := path[i], path[i+1]
		r.rows[u][v] -= amount
		r.rows[v][u] += amount
		if r.rows[u][v] < -Epsilon {
			// Unreachable given the bottleneck check above; kept as the
			// final guard on the non-negativity invariant.
			return apperror.NewCritical(apperror.CodeNegativeResidual,
				"residual capacity went negative").
				WithDetails("from", u).
				WithDetails("to", v).
				WithDetails("residual", r.rows[u][v])
		}
		if r.rows[u][v] < 0 {
			r.rows[u][v] = 0 // float dust from saturating subtraction
		}
	}

	return nil
}

// =============================================================================
// Copy / Reset
// =============================================================================

// Clone returns an independent copy of the residual matrix.
func (r *Residual) Clone() *Residual {
	c := NewResidualSize(r.n)
	copy(c.buf, r.buf)
	return c
}

// grow resizes the storage to an n×n layout, reusing the backing array when
// it is large enough. Existing contents are discarded; Load zeroes them.
func (r *Residual) grow(n int) {
	if n*n <= cap(r.buf) && n <= cap(r.rows) {
		r.buf = r.buf[:n*n]
		r.rows = r.rows[:n]
	} else {
		r.buf = make([]float64, n*n)
		r.rows = make([][]float64, n)
	}
	for i := range r.rows {
		r.rows[i] = r.buf[i*n : (i+1)*n : (i+1)*n]
	}
	r.n = n
}
