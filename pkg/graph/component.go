package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// LargestComponent returns the nodes of the largest weakly connected
// component, in ascending order.
func LargestComponent(g *Graph) []uint32 {
	n := uint32(g.NumNodes())
	if n == 0 {
		return nil
	}

	uf := NewUnionFind(n)
	for _, e := range g.AllEdges() {
		uf.Union(e.A, e.B)
	}

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := range n {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := range n {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent creates a new graph containing only the given nodes and
// the base edges between them. Levels and shortcuts are not carried over, so
// it must run before preprocessing.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return New(0)
	}

	oldToNew := make(map[uint32]uint32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	out := New(len(nodes))
	for _, e := range g.AllEdges() {
		if e.Shortcut {
			continue
		}
		a, okA := oldToNew[e.A]
		b, okB := oldToNew[e.B]
		if okA && okB {
			out.AddEdge(a, b, e.Distance, e.Flags)
		}
	}

	if g.HasCoordinates() {
		out.NodeLat = make([]float64, len(nodes))
		out.NodeLon = make([]float64, len(nodes))
		for newIdx, oldIdx := range nodes {
			out.NodeLat[newIdx] = g.NodeLat[oldIdx]
			out.NodeLon[newIdx] = g.NodeLon[oldIdx]
		}
	}
	return out
}
