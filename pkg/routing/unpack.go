package routing

import (
	"errors"
	"fmt"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

// ErrCorruptShortcut is returned when a shortcut's skip references do not
// form a path between its endpoints.
var ErrCorruptShortcut = errors.New("routing: shortcut skip references are inconsistent")

// unpacker appends base edges to a path while expanding shortcuts.
type unpacker struct {
	g *graph.Graph
	w weighting.Weighting
	p *Path
}

// unpack expands edge, traversed starting at from, into base edges. Uses an
// explicit stack to avoid recursion.
func (u *unpacker) unpack(edge, from uint32) error {
	stack := []hop{{edge: edge, from: from}}
	limit := u.g.NumEdges()

	for steps := 0; len(stack) > 0; steps++ {
		if steps > 2*limit {
			return fmt.Errorf("%w: edge %d does not terminate", ErrCorruptShortcut, edge)
		}
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := u.g.Edge(h.edge)
		if !e.Touches(h.from) {
			return fmt.Errorf("%w: edge %d does not touch node %d", ErrCorruptShortcut, h.edge, h.from)
		}
		s, _ := u.g.EdgeState(h.edge, h.from)

		if !e.Shortcut {
			u.add(s, s.Distance)
			continue
		}
		if !e.HasSkipped() {
			u.add(s, u.w.RevertWeight(s.Weight, s.Flags))
			continue
		}

		first, second := e.Skipped[0], e.Skipped[1]
		fe := u.g.Edge(first)
		if !fe.Touches(h.from) {
			first, second = second, first
			fe = u.g.Edge(first)
		}
		if !fe.Touches(h.from) {
			return fmt.Errorf("%w: edge %d does not start at node %d", ErrCorruptShortcut, h.edge, h.from)
		}
		middle := fe.Other(h.from)

		// Push the second half first so the first half is expanded first.
		stack = append(stack, hop{edge: second, from: middle}, hop{edge: first, from: h.from})
	}
	return nil
}

func (u *unpacker) add(s graph.EdgeState, distance float64) {
	u.p.Edges = append(u.p.Edges, s.ID)
	u.p.Nodes = append(u.p.Nodes, s.Adj)
	u.p.Distance += distance
	u.p.Time += u.w.Time(distance, s.Flags)
}
