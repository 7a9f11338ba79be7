package graph

import (
	"iter"
)

// Flags holds the direction bits of an edge, relative to its stored
// orientation A->B, plus an opaque payload for the weighting.
type Flags uint32

const (
	Forward  Flags = 1 << 0
	Backward Flags = 1 << 1
	Both           = Forward | Backward

	directionMask = Both
	payloadShift  = 2
)

// IsForward reports whether the edge can be traversed A->B.
func (f Flags) IsForward() bool { return f&Forward != 0 }

// IsBackward reports whether the edge can be traversed B->A.
func (f Flags) IsBackward() bool { return f&Backward != 0 }

// IsBoth reports whether the edge is traversable in both directions.
func (f Flags) IsBoth() bool { return f&Both == Both }

// Direction strips the payload.
func (f Flags) Direction() Flags { return f & directionMask }

// Payload returns the bits above the direction bits.
func (f Flags) Payload() uint32 { return uint32(f >> payloadShift) }

// WithPayload replaces the payload and keeps the direction bits.
func (f Flags) WithPayload(p uint32) Flags {
	return f&directionMask | Flags(p)<<payloadShift
}

// WithDirection replaces the direction bits and keeps the payload.
func (f Flags) WithDirection(dir Flags) Flags {
	return f&^directionMask | dir&directionMask
}

// Reverse swaps the forward and backward bits.
func (f Flags) Reverse() Flags {
	d := f & directionMask
	if d == Forward || d == Backward {
		d ^= Both
	}
	return f&^directionMask | d
}

const (
	// NoEdge marks an absent edge reference (e.g. an unset skip ref).
	NoEdge = ^uint32(0)
	// NoNode marks an absent node reference.
	NoNode = ^uint32(0)
	// NoLevel is the level of a node that has not been contracted yet.
	NoLevel int32 = -1
)

// Edge is a stored edge. Base edges carry Distance and Flags; shortcuts
// additionally carry the aggregated search Weight and the two edges they
// replace.
type Edge struct {
	A, B     uint32
	Distance float64
	Flags    Flags

	Shortcut      bool
	Weight        float64
	Skipped       [2]uint32
	OriginalEdges uint32
}

// Other returns the endpoint of e that is not n.
func (e *Edge) Other(n uint32) uint32 {
	if e.A == n {
		return e.B
	}
	return e.A
}

// Touches reports whether n is one of e's endpoints.
func (e *Edge) Touches(n uint32) bool {
	return e.A == n || e.B == n
}

// HasSkipped reports whether the shortcut can be unpacked.
func (e *Edge) HasSkipped() bool {
	return e.Shortcut && e.Skipped[0] != NoEdge && e.Skipped[1] != NoEdge
}

// EdgeState is an edge as seen from Base. Flags are relative to Base->Adj.
type EdgeState struct {
	ID            uint32
	Base          uint32
	Adj           uint32
	Distance      float64
	Flags         Flags
	Shortcut      bool
	Weight        float64
	Skipped       [2]uint32
	OriginalEdges uint32
}

// Graph is a mutable multigraph with per-node levels and shortcut metadata.
// It is not safe for concurrent mutation; concurrent readers are fine once
// preprocessing is done.
type Graph struct {
	NodeLat []float64
	NodeLon []float64

	levels []int32
	adj    [][]uint32
	edges  []Edge

	numShortcuts int
}

// New creates a graph with numNodes nodes and no edges.
func New(numNodes int) *Graph {
	g := &Graph{
		levels: make([]int32, numNodes),
		adj:    make([][]uint32, numNodes),
	}
	for i := range g.levels {
		g.levels[i] = NoLevel
	}
	return g
}

func (g *Graph) ensureNode(n uint32) {
	if n == NoNode {
		return
	}
	for uint32(len(g.levels)) <= n {
		g.levels = append(g.levels, NoLevel)
		g.adj = append(g.adj, nil)
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.levels) }

// NumEdges returns the number of stored edges including shortcuts.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NumShortcuts returns the number of shortcut edges.
func (g *Graph) NumShortcuts() int { return g.numShortcuts }

// NumBaseEdges returns the number of non-shortcut edges.
func (g *Graph) NumBaseEdges() int { return len(g.edges) - g.numShortcuts }

// HasCoordinates reports whether every node has a lat/lon.
func (g *Graph) HasCoordinates() bool {
	return len(g.NodeLat) == g.NumNodes() && len(g.NodeLon) == g.NumNodes()
}

// AddEdge inserts a base edge a-b and returns its id. Nodes are created on
// demand.
func (g *Graph) AddEdge(a, b uint32, distance float64, flags Flags) uint32 {
	return g.insert(Edge{
		A:             a,
		B:             b,
		Distance:      distance,
		Flags:         flags,
		Skipped:       [2]uint32{NoEdge, NoEdge},
		OriginalEdges: 1,
	})
}

// AddShortcut inserts e as a shortcut and returns its id.
func (g *Graph) AddShortcut(e Edge) uint32 {
	e.Shortcut = true
	g.numShortcuts++
	return g.insert(e)
}

func (g *Graph) insert(e Edge) uint32 {
	g.ensureNode(max(e.A, e.B))
	id := uint32(len(g.edges))
	g.edges = append(g.edges, e)
	g.adj[e.A] = append(g.adj[e.A], id)
	if e.B != e.A {
		g.adj[e.B] = append(g.adj[e.B], id)
	}
	return id
}

// UpdateShortcut overwrites the metadata of shortcut id. Endpoints are kept.
func (g *Graph) UpdateShortcut(id uint32, weight, distance float64, skipped [2]uint32, originalEdges uint32) {
	e := &g.edges[id]
	e.Weight = weight
	e.Distance = distance
	e.Skipped = skipped
	e.OriginalEdges = originalEdges
}

// FindShortcut returns a shortcut from->to whose direction bits, seen from
// from, equal dir.
func (g *Graph) FindShortcut(from, to uint32, dir Flags) (uint32, bool) {
	if int(from) >= len(g.adj) {
		return NoEdge, false
	}
	for _, id := range g.adj[from] {
		e := &g.edges[id]
		if !e.Shortcut || e.Other(from) != to {
			continue
		}
		f := e.Flags
		if e.A != from {
			f = f.Reverse()
		}
		if f.Direction() == dir.Direction() {
			return id, true
		}
	}
	return NoEdge, false
}

// Edge returns a copy of the stored edge.
func (g *Graph) Edge(id uint32) Edge { return g.edges[id] }

// EdgeState returns edge id as seen from base. ok is false if base is not an
// endpoint.
func (g *Graph) EdgeState(id, base uint32) (EdgeState, bool) {
	if int(id) >= len(g.edges) {
		return EdgeState{}, false
	}
	e := &g.edges[id]
	if !e.Touches(base) {
		return EdgeState{}, false
	}
	return g.state(id, base), true
}

func (g *Graph) state(id, base uint32) EdgeState {
	e := &g.edges[id]
	s := EdgeState{
		ID:            id,
		Base:          base,
		Adj:           e.Other(base),
		Distance:      e.Distance,
		Flags:         e.Flags,
		Shortcut:      e.Shortcut,
		Weight:        e.Weight,
		Skipped:       e.Skipped,
		OriginalEdges: e.OriginalEdges,
	}
	if e.A != base {
		s.Flags = s.Flags.Reverse()
	}
	return s
}

// Edges yields every edge incident to n regardless of direction.
func (g *Graph) Edges(n uint32) iter.Seq[EdgeState] {
	return func(yield func(EdgeState) bool) {
		for _, id := range g.adj[n] {
			if !yield(g.state(id, n)) {
				return
			}
		}
	}
}

// Outgoing yields edges that can be traversed from n.
func (g *Graph) Outgoing(n uint32) iter.Seq[EdgeState] {
	return func(yield func(EdgeState) bool) {
		for _, id := range g.adj[n] {
			s := g.state(id, n)
			if s.Flags.IsForward() && !yield(s) {
				return
			}
		}
	}
}

// Incoming yields edges that can be traversed into n. Each state has Base n
// and Adj set to the predecessor.
func (g *Graph) Incoming(n uint32) iter.Seq[EdgeState] {
	return func(yield func(EdgeState) bool) {
		for _, id := range g.adj[n] {
			s := g.state(id, n)
			if s.Flags.IsBackward() && !yield(s) {
				return
			}
		}
	}
}

// AllEdges yields every stored edge with its id.
func (g *Graph) AllEdges() iter.Seq2[uint32, Edge] {
	return func(yield func(uint32, Edge) bool) {
		for i := range g.edges {
			if !yield(uint32(i), g.edges[i]) {
				return
			}
		}
	}
}

// Degree returns the number of edges incident to n.
func (g *Graph) Degree(n uint32) int { return len(g.adj[n]) }

// Level returns n's contraction level, or NoLevel.
func (g *Graph) Level(n uint32) int32 { return g.levels[n] }

// SetLevel assigns n's contraction level.
func (g *Graph) SetLevel(n uint32, level int32) { g.levels[n] = level }

// MaxLevel returns the highest assigned level, or NoLevel.
func (g *Graph) MaxLevel() int32 {
	m := NoLevel
	for _, l := range g.levels {
		m = max(m, l)
	}
	return m
}
