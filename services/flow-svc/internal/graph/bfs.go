// Package graph provides data structures and utilities for maximum-flow computations.
//
// This file implements the breadth-first search used to find augmenting paths.
// The search is deterministic: neighbors are expanded in increasing node-index
// order, so two runs over identical inputs discover identical paths. BFS finds
// a path with the fewest arcs, which is what bounds the number of Edmonds-Karp
// iterations by V·E.
package graph

// =============================================================================
// Queue Implementation
// =============================================================================

// Queue is a FIFO queue for BFS traversal.
// It uses a slice with a head pointer to avoid repeated allocations;
// Reset keeps the underlying storage for reuse between searches.
type Queue struct {
	data []int // underlying storage
	head int   // index of next element to dequeue
}

// NewQueue creates a Queue with the specified initial capacity,
// typically the number of nodes in the network.
func NewQueue(capacity int) *Queue {
	return &Queue{
		data: make([]int, 0, capacity),
		head: 0,
	}
}

// Push adds an element to the end of the queue.
// Amortized O(1).
func (q *Queue) Push(v int) {
	q.data = append(q.data, v)
}

// Pop removes and returns the element at the front of the queue.
//
// Panics if the queue is empty. Always check Empty() before calling Pop().
func (q *Queue) Pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty returns true if the queue contains no elements.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of elements currently in the queue.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset clears the queue for reuse, keeping the underlying capacity.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Augmenting-Path Search
// =============================================================================

// SearchResult holds the outcome of one augmenting-path search.
//
// Parent assigns every visited node the node it was discovered from; the
// source holds -1 and so does every unvisited node (check Visited to tell
// them apart). The slices may alias pooled scratch storage and are only
// valid until the next search that reuses the same Scratch.
type SearchResult struct {
	Found   bool
	Parent  []int
	Visited []bool
}

// FindAugmentingPath performs a breadth-first search from source to sink over
// arcs with positive residual capacity.
//
// Neighbor expansion is in increasing node-index order, making the chosen
// path deterministic. The search stops as soon as the sink is discovered.
//
// Time Complexity: O(V²) on the dense matrix, which for the supported
// network sizes beats an adjacency walk.
// Space Complexity: O(V)
func FindAugmentingPath(r *Residual, source, sink int) *SearchResult {
	s := NewScratch(r.Size())
	return FindAugmentingPathInto(r, source, sink, s)
}

// FindAugmentingPathInto is FindAugmentingPath with caller-provided scratch
// storage, letting the engine reuse buffers across iterations of a solve.
// The returned SearchResult aliases the scratch slices.
func FindAugmentingPathInto(r *Residual, source, sink int, s *Scratch) *SearchResult {
	n := r.Size()
	s.prepare(n)

	s.queue.Push(source)
	s.visited[source] = true

	for !s.queue.Empty() {
		u := s.queue.Pop()
		row := r.Row(u)

		// Ascending index scan keeps path selection reproducible.
		for v := 0; v < n; v++ {
			if s.visited[v] || row[v] <= Epsilon {
				continue
			}
			s.parent[v] = u
			s.visited[v] = true

			if v == sink {
				return &SearchResult{Found: true, Parent: s.parent, Visited: s.visited}
			}
			s.queue.Push(v)
		}
	}

	return &SearchResult{Found: false, Parent: s.parent, Visited: s.visited}
}

// Reachable returns the set of nodes reachable from `from` over arcs with
// positive residual capacity. On a terminal residual this is exactly the
// source side of a minimum cut.
func Reachable(r *Residual, from int) []bool {
	n := r.Size()
	visited := make([]bool, n)
	if from < 0 || from >= n {
		return visited
	}

	queue := NewQueue(n)
	queue.Push(from)
	visited[from] = true

	for !queue.Empty() {
		u := queue.Pop()
		row := r.Row(u)
		for v := 0; v < n; v++ {
			if !visited[v] && row[v] > Epsilon {
				visited[v] = true
				queue.Push(v)
			}
		}
	}

	return visited
}
