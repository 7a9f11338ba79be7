package routing

import (
	"math"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

// Goal is a target of a one-to-many search. A goal settled at or below
// Bound needs no further search.
type Goal struct {
	Node  uint32
	Bound float64
}

// OneToMany is a single-source Dijkstra that stops once every goal is
// settled, once the queue passes the largest bound, or once MaxSettled nodes
// have been settled. Each Search starts from a clean state.
type OneToMany struct {
	// MaxSettled caps the number of settled nodes. Zero means unlimited.
	MaxSettled int

	g        *graph.Graph
	w        weighting.Weighting
	f        frontier
	visited  int
	results  []float64
	resolved []bool
}

// NewOneToMany creates a search over g.
func NewOneToMany(g *graph.Graph, w weighting.Weighting) (*OneToMany, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if w == nil {
		return nil, ErrNilWeighting
	}
	return &OneToMany{g: g, w: w, f: newFrontier(Forward)}, nil
}

// Search expands from source and returns the best weight found for each
// goal, or +Inf. The returned slice is reused by the next call.
func (s *OneToMany) Search(source uint32, goals []Goal, filter EdgeFilter) []float64 {
	if filter == nil {
		filter = AcceptAll
	}
	s.f.reset()
	s.visited = 0
	s.results = s.results[:0]
	s.resolved = s.resolved[:0]

	maxBound := math.Inf(-1)
	for _, gl := range goals {
		s.results = append(s.results, math.Inf(1))
		s.resolved = append(s.resolved, false)
		maxBound = max(maxBound, gl.Bound)
	}
	if len(goals) == 0 {
		return s.results
	}

	pending := len(goals)
	s.f.init(source)
	for {
		idx, ok := s.f.pop()
		if !ok {
			break
		}
		s.visited++
		cur := s.f.entries[idx]
		if cur.weight > maxBound {
			break
		}
		for i, gl := range goals {
			if !s.resolved[i] && gl.Node == cur.node {
				s.resolved[i] = true
				pending--
			}
		}
		if pending == 0 {
			break
		}
		if s.MaxSettled > 0 && s.visited >= s.MaxSettled {
			break
		}
		s.f.relax(s.g, s.w, idx, filter, nil)
	}

	for i, gl := range goals {
		if wgt, _, ok := s.f.bestWeight(gl.Node); ok {
			s.results[i] = wgt
		}
	}
	return s.results
}

// VisitedCount returns the number of nodes settled by the last Search.
func (s *OneToMany) VisitedCount() int { return s.visited }
