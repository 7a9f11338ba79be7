package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/chrouter/pkg/graph"
)

func TestMinHeap(t *testing.T) {
	var h minHeap
	for i, w := range []float64{5, 3, 8, 1, 4, 7, 2, 6} {
		h.Push(int32(i), w)
	}

	prev := math.Inf(-1)
	for h.Len() > 0 {
		it := h.Pop()
		assert.GreaterOrEqual(t, it.weight, prev)
		prev = it.weight
	}
	assert.Equal(t, 8.0, prev)

	h.Push(0, 1)
	h.Reset()
	assert.Equal(t, 0, h.Len())
}

func TestFrontierSkipsStaleEntries(t *testing.T) {
	g := buildGraph(3, []testEdge{
		{0, 1, 10, graph.Both},
		{0, 2, 1, graph.Both},
		{2, 1, 1, graph.Both},
	})
	f := newFrontier(Forward)
	f.init(0)

	idx, ok := f.pop()
	require.True(t, ok)
	f.relax(g, shortestWeighting, idx, AcceptAll, nil)
	assert.Equal(t, 1.0, f.peek(), "node 2 comes first")

	idx, ok = f.pop()
	require.True(t, ok)
	f.relax(g, shortestWeighting, idx, AcceptAll, nil)

	// Node 1 was improved from 10 to 2; the stale heap item must be skipped.
	idx, ok = f.pop()
	require.True(t, ok)
	assert.Equal(t, uint32(1), f.entries[idx].node)
	assert.Equal(t, 2.0, f.entries[idx].weight)

	_, ok = f.pop()
	assert.False(t, ok)
	assert.True(t, math.IsInf(f.peek(), 1))
	assert.Len(t, f.settled, 3)

	f.reset()
	assert.Empty(t, f.entries)
	assert.Empty(t, f.best)
}
