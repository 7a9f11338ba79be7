package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

var (
	// ErrMustReset is returned when Find is called twice without Reset.
	ErrMustReset = errors.New("routing: search already ran, call Reset before reuse")
	// ErrNilGraph is returned when a search is built without a graph.
	ErrNilGraph = errors.New("routing: graph is nil")
	// ErrNilWeighting is returned when a search is built without a weighting.
	ErrNilWeighting = errors.New("routing: weighting is nil")
	// ErrNodeOutOfRange is returned for a source or target the graph does not have.
	ErrNodeOutOfRange = errors.New("routing: node out of range")
)

// Bidirectional runs a forward Dijkstra from the source and a backward one
// from the target, alternating one step each, until neither frontier can
// improve the best meeting weight.
//
// An instance holds per-query state and is single-use: call Reset before the
// next Find. Instances must not be shared between goroutines, but any number
// of them may read the same prepared graph.
type Bidirectional struct {
	g     *graph.Graph
	w     weighting.Weighting
	sides [2]frontier

	mu      float64
	meet    [2]int32
	visited int
	ran     bool
}

// NewBidirectional creates a search engine over g.
func NewBidirectional(g *graph.Graph, w weighting.Weighting) (*Bidirectional, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if w == nil {
		return nil, ErrNilWeighting
	}
	b := &Bidirectional{
		g:     g,
		w:     w,
		sides: [2]frontier{newFrontier(Forward), newFrontier(Backward)},
	}
	b.clear()
	return b, nil
}

func (b *Bidirectional) clear() {
	b.sides[Forward].reset()
	b.sides[Backward].reset()
	b.mu = math.Inf(1)
	b.meet = [2]int32{noParent, noParent}
	b.visited = 0
}

// Reset clears the state of the previous Find.
func (b *Bidirectional) Reset() {
	b.clear()
	b.ran = false
}

// VisitedCount returns the number of nodes settled by both frontiers.
func (b *Bidirectional) VisitedCount() int { return b.visited }

// Seed is a search root with a starting weight, such as the remainder of a
// snapped edge.
type Seed struct {
	Node   uint32
	Weight float64
}

// Find computes the shortest path from source to target, relaxing only
// edges accepted by filter (nil accepts all). An unreachable target yields a
// Path with Found == false and infinite distance, not an error.
func (b *Bidirectional) Find(source, target uint32, filter EdgeFilter) (*Path, error) {
	return b.FindSeeded([]Seed{{Node: source}}, []Seed{{Node: target}}, filter)
}

// FindSeeded is Find with several weighted roots per side. The returned
// Path starts at one of the sources and ends at one of the targets; its
// Weight includes both seed weights while Distance and Time cover the graph
// edges only.
func (b *Bidirectional) FindSeeded(sources, targets []Seed, filter EdgeFilter) (*Path, error) {
	if b.ran {
		return nil, ErrMustReset
	}
	b.ran = true

	n := uint32(b.g.NumNodes())
	for _, side := range [][]Seed{sources, targets} {
		for _, s := range side {
			if s.Node >= n {
				return nil, fmt.Errorf("%w: %d, graph has %d nodes", ErrNodeOutOfRange, s.Node, n)
			}
		}
	}
	if filter == nil {
		filter = AcceptAll
	}

	fwd, bwd := &b.sides[Forward], &b.sides[Backward]
	for _, s := range sources {
		fwd.seed(s.Node, s.Weight)
	}
	for _, s := range targets {
		bwd.seed(s.Node, s.Weight)
	}
	// Roots seeded on both sides meet before any edge is relaxed.
	for _, s := range sources {
		fw, fidx, _ := fwd.bestWeight(s.Node)
		if bw, bidx, ok := bwd.bestWeight(s.Node); ok && fw+bw < b.mu {
			b.mu = fw + bw
			b.meet = [2]int32{fidx, bidx}
		}
	}

	for min(fwd.peek(), bwd.peek()) < b.mu {
		if fwd.peek() < b.mu {
			b.step(Forward, filter)
		}
		if bwd.peek() < b.mu {
			b.step(Backward, filter)
		}
	}

	if b.meet[Forward] == noParent {
		return unreachable(), nil
	}
	return extractPath(b.g, b.w, fwd, b.meet[Forward], bwd, b.meet[Backward], b.mu)
}

// step settles one node of the dir frontier and relaxes its edges, updating
// the meeting weight whenever a relaxed node was reached by the other side.
func (b *Bidirectional) step(dir Direction, filter EdgeFilter) {
	own, other := &b.sides[dir], &b.sides[dir.Opposite()]
	cur, ok := own.pop()
	if !ok {
		return
	}
	b.visited++

	own.relax(b.g, b.w, cur, filter, func(idx int32) {
		e := &own.entries[idx]
		ow, oidx, reached := other.bestWeight(e.node)
		if !reached {
			return
		}
		if total := e.weight + ow; total < b.mu {
			b.mu = total
			b.meet[dir] = idx
			b.meet[dir.Opposite()] = oidx
		}
	})
}
