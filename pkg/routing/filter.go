package routing

import "github.com/azybler/chrouter/pkg/graph"

// Direction selects a search frontier.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction { return 1 - d }

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// EdgeFilter decides whether a search running in dir may relax e. For the
// forward direction e is an outgoing edge of e.Base, for the backward
// direction an incoming one.
type EdgeFilter interface {
	Accept(dir Direction, e graph.EdgeState) bool
}

// FilterFunc adapts a function to EdgeFilter.
type FilterFunc func(dir Direction, e graph.EdgeState) bool

// Accept calls f(dir, e).
func (f FilterFunc) Accept(dir Direction, e graph.EdgeState) bool { return f(dir, e) }

// AcceptAll lets every edge through.
var AcceptAll EdgeFilter = FilterFunc(func(Direction, graph.EdgeState) bool { return true })

// LevelFilter restricts both directions to edges leading to a node whose
// level is at least the level of the current node. On a graph without
// levels it accepts everything.
type LevelFilter struct {
	G *graph.Graph
}

// Accept reports whether e leads to a node at or above the level of e.Base.
// Uncontracted nodes share NoLevel, so they accept each other.
func (f LevelFilter) Accept(_ Direction, e graph.EdgeState) bool {
	return f.G.Level(e.Adj) >= f.G.Level(e.Base)
}
