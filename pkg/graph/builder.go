package graph

import (
	"github.com/paulmach/osm"

	osmparser "github.com/azybler/chrouter/pkg/osm"
)

// Build creates a Graph from parsed OSM edges. OSM node ids are remapped to
// compact indices in order of first appearance. The flag payload is the
// speed in km/h, as read by weighting.CarFlags.
func Build(result *osmparser.ParseResult) *Graph {
	edges := result.Edges
	if len(edges) == 0 {
		return New(0)
	}

	nodeSet := make(map[osm.NodeID]uint32)
	var nodeIDs []osm.NodeID

	addNode := func(id osm.NodeID) uint32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	for i := range edges {
		addNode(edges[i].FromNodeID)
		addNode(edges[i].ToNodeID)
	}

	g := New(len(nodeIDs))
	for _, e := range edges {
		var dir Flags
		if e.Forward {
			dir |= Forward
		}
		if e.Backward {
			dir |= Backward
		}
		if dir == 0 {
			continue
		}
		g.AddEdge(nodeSet[e.FromNodeID], nodeSet[e.ToNodeID], e.Distance, dir.WithPayload(uint32(e.SpeedKmh)))
	}

	g.NodeLat = make([]float64, len(nodeIDs))
	g.NodeLon = make([]float64, len(nodeIDs))
	for i, id := range nodeIDs {
		g.NodeLat[i] = result.NodeLat[id]
		g.NodeLon[i] = result.NodeLon[id]
	}

	return g
}
