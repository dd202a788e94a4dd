package graph

import (
	"sync"

	"flownet/pkg/domain"
)

// =============================================================================
// Scratch Pool
// =============================================================================

// Scratch bundles the per-search working storage: the parent assignments,
// the visited set, and the BFS queue. One Scratch serves every iteration of
// a solve, so a request performs a constant number of allocations no matter
// how many augmenting paths it finds.
//
// A Scratch is NOT safe for concurrent use; acquire one per computation.
type Scratch struct {
	parent  []int
	visited []bool
	queue   Queue
}

// NewScratch creates search scratch storage sized for n nodes.
func NewScratch(n int) *Scratch {
	return &Scratch{
		parent:  make([]int, n),
		visited: make([]bool, n),
		queue:   Queue{data: make([]int, 0, n)},
	}
}

// prepare resizes the buffers to n nodes and resets them for a fresh search.
func (s *Scratch) prepare(n int) {
	if cap(s.parent) < n {
		s.parent = make([]int, n)
		s.visited = make([]bool, n)
	}
	s.parent = s.parent[:n]
	s.visited = s.visited[:n]
	for i := 0; i < n; i++ {
		s.parent[i] = -1
		s.visited[i] = false
	}
	s.queue.Reset()
}

// ScratchPool recycles Scratch instances across computations.
//
// The solver runs one search per augmenting path and services run many
// computations per second, so pooling the buffers keeps the hot loop free
// of garbage. The pool is safe for concurrent use.
type ScratchPool struct {
	pool sync.Pool
}

// NewScratchPool creates a pool whose fresh instances are sized for the
// largest supported network.
func NewScratchPool() *ScratchPool {
	return &ScratchPool{
		pool: sync.Pool{
			New: func() interface{} {
				return NewScratch(domain.MaxNetworkNodes)
			},
		},
	}
}

// Acquire returns scratch storage ready for a network of n nodes.
func (p *ScratchPool) Acquire(n int) *Scratch {
	s := p.pool.Get().(*Scratch)
	s.prepare(n)
	return s
}

// Release returns scratch storage to the pool.
// The caller must not touch s, or any SearchResult aliasing it, afterwards.
func (p *ScratchPool) Release(s *Scratch) {
	if s == nil {
		return
	}
	p.pool.Put(s)
}

// globalScratchPool serves callers that do not manage their own pool.
var globalScratchPool = NewScratchPool()

// GetScratchPool returns the process-wide scratch pool.
func GetScratchPool() *ScratchPool {
	return globalScratchPool
}
