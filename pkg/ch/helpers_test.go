package ch

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

var (
	shortest weighting.Weighting = weighting.Shortest{}
	quietLog                     = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// plainDijkstra runs textbook Dijkstra over base edges only.
func plainDijkstra(g *graph.Graph, w weighting.Weighting, source, target uint32) float64 {
	n := g.NumNodes()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0

	type item struct {
		node uint32
		dist float64
	}
	pq := []item{{source, 0}}

	for len(pq) > 0 {
		minIdx := 0
		for i := 1; i < len(pq); i++ {
			if pq[i].dist < pq[minIdx].dist {
				minIdx = i
			}
		}
		cur := pq[minIdx]
		pq[minIdx] = pq[len(pq)-1]
		pq = pq[:len(pq)-1]

		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == target {
			return cur.dist
		}

		for e := range g.Outgoing(cur.node) {
			if e.Shortcut {
				continue
			}
			if nd := cur.dist + w.Weight(e.Distance, e.Flags); nd < dist[e.Adj] {
				dist[e.Adj] = nd
				pq = append(pq, item{e.Adj, nd})
			}
		}
	}
	return dist[target]
}

// addEdge adds a base edge; both selects a two-way road.
func addEdge(g *graph.Graph, a, b uint32, distance float64, both bool) uint32 {
	f := graph.Forward
	if both {
		f = graph.Both
	}
	return g.AddEdge(a, b, distance, f)
}

// prepare runs a full contraction and returns the query over it.
func prepare(t *testing.T, g *graph.Graph, w weighting.Weighting, opts ...Option) (*Query, Stats) {
	t.Helper()
	p, err := NewPreparation(g, w, append([]Option{WithLogger(quietLog)}, opts...)...)
	require.NoError(t, err)
	stats := p.Run()
	q, err := p.BuildQuery()
	require.NoError(t, err)
	return q, stats
}

// assertEquivalent compares every pair against plainDijkstra on the same
// graph, shortcuts ignored.
func assertEquivalent(t *testing.T, g *graph.Graph, w weighting.Weighting, q *Query) {
	t.Helper()
	n := uint32(g.NumNodes())
	for s := range n {
		for d := range n {
			q.Reset()
			p, err := q.Find(s, d)
			require.NoError(t, err)

			want := plainDijkstra(g, w, s, d)
			if math.IsInf(want, 1) {
				assert.False(t, p.Found, "%d->%d should be unreachable", s, d)
				continue
			}
			if !assert.True(t, p.Found, "%d->%d not found, want %v", s, d, want) {
				continue
			}
			assert.InDelta(t, want, p.Weight, 1e-6, "%d->%d", s, d)
			assertBasePath(t, g, w, p.Nodes, p.Edges, p.Distance, s, d)
		}
	}
}

// assertBasePath checks that edges form a walk of traversable base edges
// from s to d whose distances add up.
func assertBasePath(t *testing.T, g *graph.Graph, w weighting.Weighting, nodes, edges []uint32, distance float64, s, d uint32) {
	t.Helper()
	require.Len(t, nodes, len(edges)+1)
	assert.Equal(t, s, nodes[0])
	assert.Equal(t, d, nodes[len(nodes)-1])

	var sum float64
	for i, id := range edges {
		e, ok := g.EdgeState(id, nodes[i])
		require.True(t, ok, "edge %d not traversable from %d", id, nodes[i])
		assert.False(t, e.Shortcut)
		assert.Equal(t, nodes[i+1], e.Adj)
		sum += e.Distance
	}
	assert.InDelta(t, sum, distance, 1e-6)
}

// randomGraph builds a graph mixing one-way and two-way roads with car
// speeds, plus a few parallel edges and self-loops.
func randomGraph(r *rand.Rand, n, m int) *graph.Graph {
	g := graph.New(n)
	for i := 1; i < n; i++ {
		g.AddEdge(uint32(r.IntN(i)), uint32(i), float64(1+r.IntN(100)), weighting.CarFlags(10+r.IntN(120), true, true))
	}
	for range m {
		a, b := uint32(r.IntN(n)), uint32(r.IntN(n))
		fwd := r.IntN(3) != 0
		bwd := !fwd || r.IntN(2) == 0
		g.AddEdge(a, b, float64(1+r.IntN(100)), weighting.CarFlags(10+r.IntN(120), fwd, bwd))
	}
	return g
}
