package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchPool_AcquireRelease(t *testing.T) {
	pool := NewScratchPool()

	s := pool.Acquire(4)
	require.NotNil(t, s)
	require.Len(t, s.parent, 4)
	require.Len(t, s.visited, 4)

	for i := range s.parent {
		assert.Equal(t, -1, s.parent[i], "parent[%d] must start unset", i)
		assert.False(t, s.visited[i], "visited[%d] must start false", i)
	}

	// Dirty the scratch, release it, and re-acquire: the pool may hand the
	// same instance back and it must come out clean.
	s.parent[2] = 0
	s.visited[2] = true
	s.queue.Push(2)
	pool.Release(s)

	s2 := pool.Acquire(4)
	for i := range s2.parent {
		assert.Equal(t, -1, s2.parent[i])
		assert.False(t, s2.visited[i])
	}
	assert.True(t, s2.queue.Empty())
}

func TestScratchPool_Resize(t *testing.T) {
	pool := NewScratchPool()

	s := pool.Acquire(2)
	assert.Len(t, s.parent, 2)
	pool.Release(s)

	// A larger request must grow the buffers even when reusing an instance.
	s = pool.Acquire(16)
	assert.Len(t, s.parent, 16)
	assert.Len(t, s.visited, 16)
	pool.Release(s)
}

func TestScratchPool_ReleaseNil(t *testing.T) {
	pool := NewScratchPool()
	pool.Release(nil) // must not panic
}

func TestScratchPool_Concurrent(t *testing.T) {
	net := diamondNetwork(t)
	pool := NewScratchPool()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r := NewResidual(net)
				s := pool.Acquire(net.NodeCount())

				res := FindAugmentingPathInto(r, net.Source(), net.Sink(), s)
				if !res.Found {
					t.Error("path must be found on a fresh residual")
				}

				pool.Release(s)
			}
		}()
	}
	wg.Wait()
}

func TestGetScratchPool_Singleton(t *testing.T) {
	if GetScratchPool() != GetScratchPool() {
		t.Error("GetScratchPool must return the same pool")
	}
}
