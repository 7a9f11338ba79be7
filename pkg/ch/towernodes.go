package ch

import (
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

// TowerNodes bypasses pass-through nodes: nodes that, once already bypassed
// neighbors are ignored, connect exactly two other nodes. Each bypass adds a
// shortcut between the two neighbors and gives the node the next level, so
// the regular contraction treats it as done.
type TowerNodes struct {
	g         *graph.Graph
	w         weighting.Weighting
	level     int32
	shortcuts int

	in, out []arc
}

// NewTowerNodes creates the pass over g.
func NewTowerNodes(g *graph.Graph, w weighting.Weighting) (*TowerNodes, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if w == nil {
		return nil, routing.ErrNilWeighting
	}
	return &TowerNodes{g: g, w: w}, nil
}

func (t *TowerNodes) bypassed(n uint32) bool { return t.g.Level(n) != graph.NoLevel }

// neighbors returns the two distinct neighbors of node, ignoring self-loops
// and bypassed nodes. ok is false for any other neighbor count.
func (t *TowerNodes) neighbors(node uint32) (a, b uint32, ok bool) {
	a, b = graph.NoNode, graph.NoNode
	for e := range t.g.Edges(node) {
		if e.Adj == node || e.Adj == a || e.Adj == b || t.bypassed(e.Adj) {
			continue
		}
		switch {
		case a == graph.NoNode:
			a = e.Adj
		case b == graph.NoNode:
			b = e.Adj
		default:
			return graph.NoNode, graph.NoNode, false
		}
	}
	return a, b, b != graph.NoNode
}

func (t *TowerNodes) collect(node uint32) {
	t.in = lightestArcs(t.w, t.g.Incoming(node), t.bypassed, t.in)
	t.out = lightestArcs(t.w, t.g.Outgoing(node), t.bypassed, t.out)
}

// through returns the lightest from -> node and node -> to arcs of the last
// collected node.
func (t *TowerNodes) through(from, to uint32) (in, out arc, ok bool) {
	in, okIn := findArc(t.in, from)
	out, okOut := findArc(t.out, to)
	return in, out, okIn && okOut
}

// HasOneInOneOut reports whether node can be bypassed: it is not bypassed
// yet, has exactly two distinct live neighbors and can be passed through in
// at least one direction.
func (t *TowerNodes) HasOneInOneOut(node uint32) bool {
	if t.bypassed(node) {
		return false
	}
	a, b, ok := t.neighbors(node)
	if !ok {
		return false
	}
	t.collect(node)
	_, _, ab := t.through(a, b)
	_, _, ba := t.through(b, a)
	return ab || ba
}

// Run scans all nodes once in id order and bypasses those that qualify. It
// returns the number of shortcuts created; improving an existing shortcut
// does not count.
func (t *TowerNodes) Run() int {
	t.level = t.g.MaxLevel() + 1
	n := uint32(t.g.NumNodes())
	for node := range n {
		if !t.HasOneInOneOut(node) {
			continue
		}
		a, b, _ := t.neighbors(node)
		inA, outB, ab := t.through(a, b)
		inB, outA, ba := t.through(b, a)

		if ab && ba && inA.edge == outA.edge && inB.edge == outB.edge &&
			inA.weight+outB.weight == inB.weight+outA.weight {
			sc := join(inA, outB)
			sc.Flags = graph.Both
			t.insert(sc)
		} else {
			if ab {
				t.insert(join(inA, outB))
			}
			if ba {
				t.insert(join(inB, outA))
			}
		}

		t.g.SetLevel(node, t.level)
		t.level++
	}
	return t.shortcuts
}

func (t *TowerNodes) insert(sc Shortcut) {
	if insertShortcut(t.g, sc) {
		t.shortcuts++
	}
}

// Shortcuts returns the number of shortcuts created so far.
func (t *TowerNodes) Shortcuts() int { return t.shortcuts }
