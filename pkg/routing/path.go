package routing

import (
	"math"
	"slices"
	"time"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

// Path is the result of a search. Edges holds base edge ids only; shortcuts
// are unpacked.
type Path struct {
	Nodes    []uint32
	Edges    []uint32
	Distance float64
	Time     time.Duration
	Weight   float64
	Found    bool
}

func unreachable() *Path {
	return &Path{Distance: math.Inf(1), Weight: math.Inf(1)}
}

// hop is one search-tree edge and the node it is traversed from.
type hop struct {
	edge uint32
	from uint32
}

// extractPath joins the forward chain ending at fIdx with the backward chain
// ending at bIdx. Both entries refer to the same meeting node.
func extractPath(g *graph.Graph, w weighting.Weighting, fwd *frontier, fIdx int32, bwd *frontier, bIdx int32, weight float64) (*Path, error) {
	var hops []hop

	// Forward entries were reached parent -> node.
	i := fIdx
	for ; fwd.entries[i].parent != noParent; i = fwd.entries[i].parent {
		e := fwd.entries[i]
		hops = append(hops, hop{edge: e.edge, from: fwd.entries[e.parent].node})
	}
	slices.Reverse(hops)

	// A seeded frontier has several roots; the chain ends at one of them.
	root := fwd.entries[i].node

	// Backward entries were reached through incoming edges, so the real
	// direction is node -> parent.
	for i := bIdx; bwd.entries[i].parent != noParent; i = bwd.entries[i].parent {
		e := bwd.entries[i]
		hops = append(hops, hop{edge: e.edge, from: e.node})
	}

	u := unpacker{g: g, w: w, p: &Path{Nodes: []uint32{root}, Weight: weight, Found: true}}
	for _, h := range hops {
		if err := u.unpack(h.edge, h.from); err != nil {
			return nil, err
		}
	}
	return u.p, nil
}
