package ch

import (
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

// DefaultMaxSettled is the number of nodes a witness search may settle
// before giving up.
const DefaultMaxSettled = 500

// WitnessSearch looks for paths that make a shortcut through a node
// unnecessary. It runs a one-to-many Dijkstra that never enters the node
// being contracted or any node that already has a level.
//
// Giving up early only costs a redundant shortcut.
type WitnessSearch struct {
	g      *graph.Graph
	search *routing.OneToMany
	avoid  uint32
	filter routing.EdgeFilter
}

// NewWitnessSearch creates a witness search over g. maxSettled <= 0 means
// DefaultMaxSettled.
func NewWitnessSearch(g *graph.Graph, w weighting.Weighting, maxSettled int) (*WitnessSearch, error) {
	s, err := routing.NewOneToMany(g, w)
	if err != nil {
		return nil, err
	}
	if maxSettled <= 0 {
		maxSettled = DefaultMaxSettled
	}
	s.MaxSettled = maxSettled

	ws := &WitnessSearch{g: g, search: s, avoid: graph.NoNode}
	ws.filter = routing.FilterFunc(ws.accept)
	return ws, nil
}

func (ws *WitnessSearch) accept(_ routing.Direction, e graph.EdgeState) bool {
	return e.Adj != ws.avoid && ws.g.Level(e.Adj) == graph.NoLevel
}

// Search returns, per goal, the weight of the best path from source that
// avoids the avoid node, or +Inf. The slice is reused by the next call.
func (ws *WitnessSearch) Search(source uint32, goals []routing.Goal, avoid uint32) []float64 {
	ws.avoid = avoid
	return ws.search.Search(source, goals, ws.filter)
}

// SetMaxSettled changes the settle limit.
func (ws *WitnessSearch) SetMaxSettled(n int) { ws.search.MaxSettled = n }

// VisitedCount returns the nodes settled by the last search.
func (ws *WitnessSearch) VisitedCount() int { return ws.search.VisitedCount() }
