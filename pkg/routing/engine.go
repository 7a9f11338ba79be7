package routing

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

// ErrNoRoute is returned when no route exists between the two points.
var ErrNoRoute = errors.New("no route found")

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// RouteResult is the output of a route query.
type RouteResult struct {
	TotalDistanceMeters float64
	Duration            time.Duration
	Geometry            []LatLng
	VisitedNodes        int
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end LatLng) (*RouteResult, error)
}

// Engine implements Router over a prepared graph. Each point is snapped to
// the nearest base edge and both ends of that edge that can be driven to
// (or from) the point become roots of a level-filtered bidirectional search,
// weighted by the part of the edge between the point and the node.
// Engine is safe for concurrent use; each query borrows its own search.
type Engine struct {
	g       *graph.Graph
	w       weighting.Weighting
	snapper *Snapper
	filter  EdgeFilter
	pool    sync.Pool
}

// NewEngine creates a routing engine from a prepared graph.
func NewEngine(g *graph.Graph, w weighting.Weighting, maxSnapMeters float64) (*Engine, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if w == nil {
		return nil, ErrNilWeighting
	}
	snapper, err := NewSnapper(g, maxSnapMeters)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		g:       g,
		w:       w,
		snapper: snapper,
		filter:  LevelFilter{G: g},
	}
	e.pool.New = func() any {
		b, _ := NewBidirectional(g, w)
		return b
	}
	return e, nil
}

// anchor is one end of a snapped edge together with the partial edge that
// links it to the query point.
type anchor struct {
	node     uint32
	weight   float64
	distance float64
	time     time.Duration
}

// anchors returns the ends of the snapped edge usable in dir: for Forward the
// nodes reachable from the point, for Backward the nodes the point can be
// reached from.
func (e *Engine) anchors(s SnapResult, dir Direction) []anchor {
	edge := e.g.Edge(s.Edge)
	// A point on a node needs no partial edge.
	switch {
	case s.Ratio <= 0:
		return []anchor{{node: edge.A}}
	case s.Ratio >= 1:
		return []anchor{{node: edge.B}}
	}
	toU := edge.Distance * s.Ratio
	toV := edge.Distance * (1 - s.Ratio)
	rev := edge.Flags.Reverse()

	var out []anchor
	add := func(node uint32, distance float64, flags graph.Flags) {
		out = append(out, anchor{
			node:     node,
			weight:   e.w.Weight(distance, flags),
			distance: distance,
			time:     e.w.Time(distance, flags),
		})
	}
	if dir == Forward {
		if edge.Flags.IsForward() {
			add(edge.B, toV, edge.Flags)
		}
		if edge.Flags.IsBackward() {
			add(edge.A, toU, rev)
		}
		return out
	}
	if edge.Flags.IsForward() {
		add(edge.A, toU, edge.Flags)
	}
	if edge.Flags.IsBackward() {
		add(edge.B, toV, rev)
	}
	return out
}

func seeds(anchors []anchor) []Seed {
	out := make([]Seed, len(anchors))
	for i, a := range anchors {
		out[i] = Seed{Node: a.node, Weight: a.weight}
	}
	return out
}

func findAnchor(anchors []anchor, node uint32) anchor {
	for _, a := range anchors {
		if a.node == node {
			return a
		}
	}
	return anchor{node: node}
}

// Route computes the shortest path between two points.
func (e *Engine) Route(ctx context.Context, start, end LatLng) (*RouteResult, error) {
	startSnap, err := e.snapper.Snap(start.Lat, start.Lng)
	if err != nil {
		return nil, err
	}
	endSnap, err := e.snapper.Snap(end.Lat, end.Lng)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := e.pool.Get().(*Bidirectional)
	defer func() {
		b.Reset()
		e.pool.Put(b)
	}()

	from := e.anchors(startSnap, Forward)
	to := e.anchors(endSnap, Backward)
	path, err := b.FindSeeded(seeds(from), seeds(to), e.filter)
	if err != nil {
		return nil, err
	}

	if direct, ok := e.alongEdge(startSnap, endSnap); ok && (!path.Found || direct.weight <= path.Weight) {
		return &RouteResult{
			TotalDistanceMeters: direct.distance,
			Duration:            direct.time,
			Geometry:            []LatLng{e.snappedPoint(startSnap), e.snappedPoint(endSnap)},
			VisitedNodes:        b.VisitedCount(),
		}, nil
	}
	if !path.Found {
		return nil, ErrNoRoute
	}

	head := findAnchor(from, path.Nodes[0])
	tail := findAnchor(to, path.Nodes[len(path.Nodes)-1])

	geom := make([]LatLng, 0, len(path.Nodes)+2)
	if head.distance > 0 {
		geom = append(geom, e.snappedPoint(startSnap))
	}
	geom = append(geom, e.buildGeometry(path.Nodes)...)
	if tail.distance > 0 {
		geom = append(geom, e.snappedPoint(endSnap))
	}

	return &RouteResult{
		TotalDistanceMeters: head.distance + path.Distance + tail.distance,
		Duration:            head.time + path.Time + tail.time,
		Geometry:            geom,
		VisitedNodes:        b.VisitedCount(),
	}, nil
}

// alongEdge returns the trip between two points snapped to the same edge
// that never leaves it, if the edge allows that direction.
func (e *Engine) alongEdge(start, end SnapResult) (anchor, bool) {
	if start.Edge != end.Edge {
		return anchor{}, false
	}
	edge := e.g.Edge(start.Edge)
	flags := edge.Flags
	switch {
	case end.Ratio >= start.Ratio && flags.IsForward():
	case end.Ratio <= start.Ratio && flags.IsBackward():
		flags = flags.Reverse()
	default:
		return anchor{}, false
	}
	d := edge.Distance * math.Abs(end.Ratio-start.Ratio)
	return anchor{weight: e.w.Weight(d, flags), distance: d, time: e.w.Time(d, flags)}, true
}

// snappedPoint interpolates the position of s along its edge.
func (e *Engine) snappedPoint(s SnapResult) LatLng {
	u, v := s.NodeU, s.NodeV
	return LatLng{
		Lat: e.g.NodeLat[u] + s.Ratio*(e.g.NodeLat[v]-e.g.NodeLat[u]),
		Lng: e.g.NodeLon[u] + s.Ratio*(e.g.NodeLon[v]-e.g.NodeLon[u]),
	}
}

func (e *Engine) buildGeometry(nodes []uint32) []LatLng {
	geom := make([]LatLng, len(nodes))
	for i, n := range nodes {
		geom[i] = LatLng{Lat: e.g.NodeLat[n], Lng: e.g.NodeLon[n]}
	}
	return geom
}
