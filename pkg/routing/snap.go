package routing

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"github.com/azybler/chrouter/pkg/geo"
	"github.com/azybler/chrouter/pkg/graph"
)

// DefaultMaxSnapMeters is the default snapping radius.
const DefaultMaxSnapMeters = 500.0

var (
	// ErrPointTooFar is returned when the query point is too far from any road.
	ErrPointTooFar = errors.New("point too far from road")
	// ErrNoCoordinates is returned when snapping over a graph without node coordinates.
	ErrNoCoordinates = errors.New("routing: graph has no node coordinates")
)

// SnapResult represents a point snapped to a road segment.
type SnapResult struct {
	Edge  uint32  // base edge id
	NodeU uint32  // stored A endpoint
	NodeV uint32  // stored B endpoint
	Ratio float64 // 0.0 = at NodeU, 1.0 = at NodeV
	Dist  float64 // meters from query point to snapped point
}

// Node returns the edge endpoint closest to the snapped point.
func (s SnapResult) Node() uint32 {
	if s.Ratio <= 0.5 {
		return s.NodeU
	}
	return s.NodeV
}

// Snapper finds the nearest base edge using an R-tree over edge bounding
// boxes. Shortcuts are not indexed.
type Snapper struct {
	tree    rtree.RTreeG[uint32]
	g       *graph.Graph
	maxDist float64
}

// NewSnapper indexes every base edge of g.
func NewSnapper(g *graph.Graph, maxDistMeters float64) (*Snapper, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasCoordinates() {
		return nil, ErrNoCoordinates
	}
	if maxDistMeters <= 0 {
		maxDistMeters = DefaultMaxSnapMeters
	}

	s := &Snapper{g: g, maxDist: maxDistMeters}
	for id, e := range g.AllEdges() {
		if e.Shortcut {
			continue
		}
		uLat, uLon := g.NodeLat[e.A], g.NodeLon[e.A]
		vLat, vLon := g.NodeLat[e.B], g.NodeLon[e.B]
		s.tree.Insert(
			[2]float64{math.Min(uLon, vLon), math.Min(uLat, vLat)},
			[2]float64{math.Max(uLon, vLon), math.Max(uLat, vLat)},
			id,
		)
	}
	return s, nil
}

// Len returns the number of indexed edges.
func (s *Snapper) Len() int { return s.tree.Len() }

// Snap finds the nearest road segment to the given lat/lng.
func (s *Snapper) Snap(lat, lng float64) (SnapResult, error) {
	dLat, dLon := geo.MetersToDegrees(lat, s.maxDist)

	bestDist := math.Inf(1)
	var best SnapResult

	s.tree.Search(
		[2]float64{lng - dLon, lat - dLat},
		[2]float64{lng + dLon, lat + dLat},
		func(_, _ [2]float64, id uint32) bool {
			e := s.g.Edge(id)
			dist, ratio := geo.PointToSegmentDist(
				lat, lng,
				s.g.NodeLat[e.A], s.g.NodeLon[e.A],
				s.g.NodeLat[e.B], s.g.NodeLon[e.B],
			)
			if dist < bestDist {
				bestDist = dist
				best = SnapResult{Edge: id, NodeU: e.A, NodeV: e.B, Ratio: ratio, Dist: dist}
			}
			return true
		},
	)

	if bestDist > s.maxDist {
		return SnapResult{}, ErrPointTooFar
	}
	return best, nil
}
