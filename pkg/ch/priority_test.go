package ch

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedScorer(t *testing.T) {
	st := NodeStats{Shortcuts: 3, Degree: 4, OriginalEdges: 6, ContractedNeighbors: 2, Depth: 5}
	assert.Equal(t, -1, st.EdgeDifference())
	assert.Equal(t, 10*-1.0+6+2, DefaultScorer.Score(st))

	s := WeightedScorer{EdgeDifference: 1, Level: 2}
	assert.Equal(t, -1.0+10, s.Score(st))
}

func TestPriorityQueueBreaksTiesByNode(t *testing.T) {
	pq := priorityQueue{}
	for _, e := range []pqEntry{{node: 7, priority: 1}, {node: 3, priority: 1}, {node: 9, priority: 0}, {node: 1, priority: 2}} {
		heap.Push(&pq, &pqEntry{node: e.node, priority: e.priority})
	}

	var order []uint32
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(*pqEntry).node)
	}
	assert.Equal(t, []uint32{9, 3, 7, 1}, order)
}
