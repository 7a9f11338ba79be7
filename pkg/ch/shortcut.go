package ch

import (
	"iter"
	"slices"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

// Shortcut is a candidate edge summarizing From -> via -> To. Skipped holds
// the edge From-via and the edge via-To, in that order.
type Shortcut struct {
	From, To      uint32
	Weight        float64
	Distance      float64
	Flags         graph.Flags
	Skipped       [2]uint32
	OriginalEdges uint32
}

func (sc Shortcut) edge() graph.Edge {
	return graph.Edge{
		A:             sc.From,
		B:             sc.To,
		Distance:      sc.Distance,
		Flags:         sc.Flags,
		Weight:        sc.Weight,
		Skipped:       sc.Skipped,
		OriginalEdges: sc.OriginalEdges,
	}
}

// insertShortcut adds sc to g. If a shortcut with the same endpoints and
// direction exists it is overwritten only when sc is lighter. Reports
// whether a new edge was created.
func insertShortcut(g *graph.Graph, sc Shortcut) bool {
	if id, ok := g.FindShortcut(sc.From, sc.To, sc.Flags.Direction()); ok {
		if sc.Weight < g.Edge(id).Weight {
			g.UpdateShortcut(id, sc.Weight, sc.Distance, sc.Skipped, sc.OriginalEdges)
		}
		return false
	}
	g.AddShortcut(sc.edge())
	return true
}

// arc is the lightest edge between a node and one neighbor in one direction.
type arc struct {
	adj      uint32
	edge     uint32
	weight   float64
	distance float64
	orig     uint32
}

// lightestArcs reduces edges to one arc per neighbor, dropping self-loops
// and neighbors for which skip returns true. buf is reused.
func lightestArcs(w weighting.Weighting, edges iter.Seq[graph.EdgeState], skip func(uint32) bool, buf []arc) []arc {
	out := buf[:0]
	for e := range edges {
		if e.Adj == e.Base || skip(e.Adj) {
			continue
		}
		a := arc{adj: e.Adj, edge: e.ID, weight: routing.EdgeWeight(w, e), distance: e.Distance, orig: e.OriginalEdges}
		i := slices.IndexFunc(out, func(o arc) bool { return o.adj == e.Adj })
		switch {
		case i < 0:
			out = append(out, a)
		case a.weight < out[i].weight:
			out[i] = a
		}
	}
	return out
}

func findArc(arcs []arc, adj uint32) (arc, bool) {
	for _, a := range arcs {
		if a.adj == adj {
			return a, true
		}
	}
	return arc{}, false
}

// join builds the one-directional shortcut in.adj -> node -> out.adj.
func join(in, out arc) Shortcut {
	return Shortcut{
		From:          in.adj,
		To:            out.adj,
		Weight:        in.weight + out.weight,
		Distance:      in.distance + out.distance,
		Flags:         graph.Forward,
		Skipped:       [2]uint32{in.edge, out.edge},
		OriginalEdges: in.orig + out.orig,
	}
}
