package ch

import (
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

// Query runs upward searches over a contracted graph: both frontiers only
// follow edges toward nodes of equal or higher level.
type Query struct {
	b      *routing.Bidirectional
	filter routing.EdgeFilter
}

// NewQuery creates a query over a graph contracted earlier, e.g. one read
// back with graph.ReadBinary.
func NewQuery(g *graph.Graph, w weighting.Weighting) (*Query, error) {
	b, err := routing.NewBidirectional(g, w)
	if err != nil {
		return nil, err
	}
	return &Query{b: b, filter: routing.LevelFilter{G: g}}, nil
}

// BuildQuery returns a query bound to the prepared graph.
func (p *Preparation) BuildQuery() (*Query, error) {
	return NewQuery(p.g, p.w)
}

// Find returns the shortest path from -> to with shortcuts unpacked. Call
// Reset before the next Find.
func (q *Query) Find(from, to uint32) (*routing.Path, error) {
	return q.b.Find(from, to, q.filter)
}

// Reset clears the previous search.
func (q *Query) Reset() { q.b.Reset() }

// VisitedCount returns the nodes settled by the last Find.
func (q *Query) VisitedCount() int { return q.b.VisitedCount() }
