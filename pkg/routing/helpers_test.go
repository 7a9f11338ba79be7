package routing

import (
	"math"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

// plainDijkstra is the reference: textbook Dijkstra over base edges only.
func plainDijkstra(g *graph.Graph, w weighting.Weighting, source, target uint32) float64 {
	n := g.NumNodes()
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0

	for {
		u := -1
		for i := range n {
			if !done[i] && !math.IsInf(dist[i], 1) && (u < 0 || dist[i] < dist[u]) {
				u = i
			}
		}
		if u < 0 {
			break
		}
		done[u] = true
		if uint32(u) == target {
			break
		}
		for e := range g.Outgoing(uint32(u)) {
			if e.Shortcut {
				continue
			}
			if nd := dist[u] + w.Weight(e.Distance, e.Flags); nd < dist[e.Adj] {
				dist[e.Adj] = nd
			}
		}
	}
	return dist[target]
}

type testEdge struct {
	a, b     uint32
	distance float64
	flags    graph.Flags
}

func buildGraph(n int, edges []testEdge) *graph.Graph {
	g := graph.New(n)
	for _, e := range edges {
		g.AddEdge(e.a, e.b, e.distance, e.flags)
	}
	return g
}

// exampleGraph is the bidirectional example used across tests:
//
//	(0-1,1) (0-2,1) (0-4,3) (1-2,2) (2-3,1) (4-3,2) (5-1,2)
func exampleGraph() *graph.Graph {
	return buildGraph(6, []testEdge{
		{0, 1, 1, graph.Both},
		{0, 2, 1, graph.Both},
		{0, 4, 3, graph.Both},
		{1, 2, 2, graph.Both},
		{2, 3, 1, graph.Both},
		{4, 3, 2, graph.Both},
		{5, 1, 2, graph.Both},
	})
}

// avoidNode rejects edges leading into n.
func avoidNode(n uint32) EdgeFilter {
	return FilterFunc(func(_ Direction, e graph.EdgeState) bool { return e.Adj != n })
}

var shortestWeighting weighting.Weighting = weighting.Shortest{}
