package engine

import (
	"context"
	"time"

	"flownet/pkg/apperror"
	"flownet/pkg/domain"
	"flownet/services/flow-svc/internal/graph"
)

// =============================================================================
// Edmonds-Karp Engine
// =============================================================================
//
// The engine drives the Ford-Fulkerson method with BFS path selection
// (Edmonds-Karp) as an explicit state machine:
//
//	Searching ──path found──▶ Augmenting ──push applied──▶ Searching
//	    │
//	    └──no path──▶ Done (the accumulated flow is maximal)
//
// Choosing the shortest augmenting path bounds the number of augmentations
// by O(V × E) independent of capacity magnitudes, which is why the BFS
// variant is used instead of a DFS one.
//
// Time Complexity: O(V × E²) overall, O(V²) per search on the dense matrix
// Space Complexity: O(V²) for the residual matrix
//
// References:
//   - Edmonds, J. & Karp, R.M. (1972). "Theoretical improvements in
//     algorithmic efficiency for network flow problems"
// =============================================================================

// State identifies a phase of the augmentation loop.
type State int

const (
	// StateSearching looks for an augmenting path in the residual network.
	StateSearching State = iota

	// StateAugmenting pushes the bottleneck amount along the found path.
	StateAugmenting

	// StateDone is terminal: no augmenting path remains.
	StateDone
)

// String returns the state name for logs and metrics.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateAugmenting:
		return "augmenting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Status classifies the outcome of a computation.
type Status string

const (
	// StatusOptimal means the loop terminated normally: the flow is maximal
	// and equals the capacity of a minimum cut.
	StatusOptimal Status = "optimal"

	// StatusNotConverged means the defensive iteration cap fired. The
	// reported flow is valid but not guaranteed maximal; it is returned for
	// diagnostics only.
	StatusNotConverged Status = "not_converged"

	// StatusCanceled means the context expired mid-computation. The reported
	// flow is the amount accumulated up to that point.
	StatusCanceled Status = "canceled"

	// StatusFailed means the input was unusable or an internal invariant was
	// violated. No flow values are returned: a violated invariant means they
	// could be wrong.
	StatusFailed Status = "failed"
)

// checkInterval is how many augmentations pass between context checks.
const checkInterval = 64

// =============================================================================
// Options
// =============================================================================

// Options configures a computation. The zero value is usable; unset fields
// fall back to the defaults documented per field.
//
// Options can be chained:
//
//	opts := engine.DefaultOptions().
//	    WithMaxIterations(500).
//	    WithRecordPaths(true)
type Options struct {
	// Epsilon is the tolerance for floating-point comparisons.
	// Default: domain.Epsilon.
	Epsilon float64

	// MaxIterations caps the number of augmentations as a guard against
	// contract violations elsewhere; it is never expected to fire for valid
	// inputs, whose augmentation count is bounded by V·E.
	// Zero or negative applies domain.DefaultMaxIterations.
	MaxIterations int

	// Timeout bounds the wall-clock duration of the computation.
	// Zero relies on the caller's context alone. Default: 30 seconds.
	Timeout time.Duration

	// RecordPaths collects every augmenting path with its pushed amount.
	// Memory grows with the number of augmentations.
	RecordPaths bool

	// ScratchPool supplies the per-search working buffers.
	// Nil uses the process-wide pool.
	ScratchPool *graph.ScratchPool
}

// DefaultOptions returns the options used for service traffic.
func DefaultOptions() *Options {
	return &Options{
		Epsilon:       domain.Epsilon,
		MaxIterations: domain.DefaultMaxIterations,
		Timeout:       30 * time.Second,
		RecordPaths:   false,
		ScratchPool:   graph.GetScratchPool(),
	}
}

// WithMaxIterations sets the augmentation cap and returns the options for chaining.
func (o *Options) WithMaxIterations(n int) *Options {
	o.MaxIterations = n
	return o
}

// WithTimeout sets the timeout and returns the options for chaining.
func (o *Options) WithTimeout(d time.Duration) *Options {
	o.Timeout = d
	return o
}

// WithRecordPaths toggles path collection and returns the options for chaining.
func (o *Options) WithRecordPaths(record bool) *Options {
	o.RecordPaths = record
	return o
}

// WithScratchPool sets the scratch pool and returns the options for chaining.
func (o *Options) WithScratchPool(p *graph.ScratchPool) *Options {
	o.ScratchPool = p
	return o
}

// =============================================================================
// Result
// =============================================================================

// PathFlow is one augmenting path together with the amount pushed along it.
type PathFlow struct {
	Nodes []int
	Flow  float64
}

// Result is the complete outcome of one computation.
//
// Check Status first. For StatusOptimal the residual matrix is the terminal
// residual network and feeds flow and min-cut reporting; for StatusFailed
// every result field except Err, Iterations and Duration is zeroed.
type Result struct {
	// MaxFlow is the total flow pushed from source to sink.
	MaxFlow float64

	// Status classifies the outcome; Err carries the matching error for
	// every status except StatusOptimal.
	Status Status
	Err    error

	// Iterations is the number of augmentations performed.
	Iterations int

	// Paths holds the augmenting paths when Options.RecordPaths is set.
	Paths []PathFlow

	// Network is the solved network; Residual the terminal residual matrix.
	// Reporting derives flows and the minimum cut from the two together.
	Network  *domain.Network
	Residual *graph.Residual

	// Duration is the wall-clock time of the computation.
	Duration time.Duration
}

// fail converts the result into an aborted one, dropping every value that a
// violated invariant could have corrupted.
func (r *Result) fail(err error) *Result {
	r.Status = StatusFailed
	r.Err = err
	r.MaxFlow = 0
	r.Paths = nil
	r.Residual = nil
	return r
}

// =============================================================================
// Solve
// =============================================================================

// Solve computes the maximum flow of the network from its source to its sink.
//
// The network is treated as immutable; all bookkeeping happens on a fresh
// residual matrix owned by this call, so independent computations can run
// concurrently on the same Network value.
//
// Outcomes:
//   - StatusOptimal: flow is maximal, Err is nil
//   - StatusNotConverged: iteration cap hit, partial flow with CodeIterationLimit
//   - StatusCanceled: ctx expired, partial flow with CodeTimeout
//   - StatusFailed: nil network or corrupted engine state, values discarded
func Solve(ctx context.Context, net *domain.Network, opts *Options) *Result {
	start := time.Now()

	if opts == nil {
		opts = DefaultOptions()
	}
	epsilon := opts.Epsilon
	if epsilon <= 0 {
		epsilon = domain.Epsilon
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = domain.DefaultMaxIterations
	}
	pool := opts.ScratchPool
	if pool == nil {
		pool = graph.GetScratchPool()
	}

	res := &Result{Status: StatusOptimal, Network: net}
	if net == nil {
		res.fail(apperror.ErrNilNetwork)
		res.Duration = time.Since(start)
		return res
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res.Residual = graph.NewResidual(net)
	scratch := pool.Acquire(net.NodeCount())
	defer pool.Release(scratch)

	source, sink := net.Source(), net.Sink()
	state := StateSearching
	var path []int

loop:
	for {
		switch state {
		case StateSearching:
			if res.Iterations%checkInterval == 0 {
				select {
				case <-ctx.Done():
					res.Status = StatusCanceled
					res.Err = apperror.Wrap(ctx.Err(), apperror.CodeTimeout,
						"flow computation canceled").
						WithDetails("iterations", res.Iterations)
					break loop
				default:
				}
			}
			if res.Iterations >= maxIterations {
				res.Status = StatusNotConverged
				res.Err = apperror.New(apperror.CodeIterationLimit,
					"augmentation cap reached before the search exhausted all paths").
					WithDetails("iterations", res.Iterations).
					WithDetails("max_iterations", maxIterations)
				break loop
			}

			sr := graph.FindAugmentingPathInto(res.Residual, source, sink, scratch)
			if !sr.Found {
				state = StateDone
				break loop
			}

			p, err := graph.ReconstructPath(sr.Parent, source, sink)
			if err != nil {
				res.fail(err)
				break loop
			}
			path = p
			state = StateAugmenting

		case StateAugmenting:
			bottleneck := res.Residual.Bottleneck(path)
			if bottleneck <= epsilon {
				// The search only walks arcs with positive residual
				// capacity, so a zero bottleneck means corrupt state.
				res.fail(apperror.NewCritical(apperror.CodeInvalidBottleneck,
					"augmenting path found with exhausted bottleneck").
					WithDetails("bottleneck", bottleneck))
				break loop
			}
			if err := res.Residual.ApplyAugmentation(path, bottleneck); err != nil {
				res.fail(err)
				break loop
			}

			res.MaxFlow += bottleneck
			res.Iterations++

			if opts.RecordPaths {
				nodes := make([]int, len(path))
				copy(nodes, path)
				res.Paths = append(res.Paths, PathFlow{Nodes: nodes, Flow: bottleneck})
			}
			state = StateSearching
		}
	}

	res.Duration = time.Since(start)
	return res
}

// MaxFlow computes just the maximum flow value with default options.
// Returns an error for every status except StatusOptimal.
func MaxFlow(net *domain.Network) (float64, error) {
	res := Solve(context.Background(), net, nil)
	if res.Err != nil {
		return 0, res.Err
	}
	return res.MaxFlow, nil
}
