package routing

import (
	"iter"
	"math"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

const noParent = int32(-1)

// EdgeWeight returns the search weight of e. Shortcuts carry their own
// aggregated weight, base edges are weighed by w.
func EdgeWeight(w weighting.Weighting, e graph.EdgeState) float64 {
	if e.Shortcut {
		return e.Weight
	}
	return w.Weight(e.Distance, e.Flags)
}

// entry is a node of a search tree. parent indexes the same arena.
type entry struct {
	edge   uint32
	node   uint32
	weight float64
	parent int32
}

// minHeap is a concrete-typed min-heap of arena indices keyed by weight.
// Avoids interface boxing overhead of container/heap.
type minHeap struct {
	items []heapItem
}

type heapItem struct {
	idx    int32
	weight float64
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(idx int32, weight float64) {
	h.items = append(h.items, heapItem{idx, weight})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() heapItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) Peek() heapItem { return h.items[0] }

func (h *minHeap) Reset() {
	h.items = h.items[:0]
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].weight >= h.items[parent].weight {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].weight < h.items[smallest].weight {
			smallest = left
		}
		if right < n && h.items[right].weight < h.items[smallest].weight {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// frontier is one Dijkstra expansion: open set, settled set and the best
// known entry per node. Stale heap items are skipped lazily.
type frontier struct {
	dir     Direction
	entries []entry
	heap    minHeap
	best    map[uint32]int32
	settled map[uint32]struct{}
}

func newFrontier(dir Direction) frontier {
	return frontier{
		dir:     dir,
		entries: make([]entry, 0, 64),
		heap:    minHeap{items: make([]heapItem, 0, 64)},
		best:    make(map[uint32]int32),
		settled: make(map[uint32]struct{}),
	}
}

func (f *frontier) reset() {
	f.entries = f.entries[:0]
	f.heap.Reset()
	clear(f.best)
	clear(f.settled)
}

// init seeds the frontier with a single root at weight zero.
func (f *frontier) init(root uint32) { f.seed(root, 0) }

// seed adds a root reached at weight. A node seeded twice keeps the lighter
// root.
func (f *frontier) seed(root uint32, weight float64) {
	if old, ok := f.best[root]; ok && f.entries[old].weight <= weight {
		return
	}
	idx := int32(len(f.entries))
	f.entries = append(f.entries, entry{edge: graph.NoEdge, node: root, weight: weight, parent: noParent})
	f.best[root] = idx
	f.heap.Push(idx, weight)
}

func (f *frontier) stale(it heapItem) bool {
	e := &f.entries[it.idx]
	if f.best[e.node] != it.idx {
		return true
	}
	_, done := f.settled[e.node]
	return done
}

// peek returns the weight of the next node to settle, or +Inf.
func (f *frontier) peek() float64 {
	for f.heap.Len() > 0 {
		it := f.heap.Peek()
		if !f.stale(it) {
			return it.weight
		}
		f.heap.Pop()
	}
	return math.Inf(1)
}

// pop settles the next node and returns its arena index.
func (f *frontier) pop() (int32, bool) {
	for f.heap.Len() > 0 {
		it := f.heap.Pop()
		if f.stale(it) {
			continue
		}
		f.settled[f.entries[it.idx].node] = struct{}{}
		return it.idx, true
	}
	return noParent, false
}

// bestWeight returns the tentative weight of node, if reached.
func (f *frontier) bestWeight(node uint32) (float64, int32, bool) {
	idx, ok := f.best[node]
	if !ok {
		return 0, noParent, false
	}
	return f.entries[idx].weight, idx, true
}

func (f *frontier) edges(g *graph.Graph, node uint32) iter.Seq[graph.EdgeState] {
	if f.dir == Forward {
		return g.Outgoing(node)
	}
	return g.Incoming(node)
}

// relax expands the settled entry cur. onImprove is called for every node
// whose best entry changed, with the new arena index.
func (f *frontier) relax(g *graph.Graph, w weighting.Weighting, cur int32, filter EdgeFilter, onImprove func(idx int32)) {
	base := f.entries[cur]
	for e := range f.edges(g, base.node) {
		if !filter.Accept(f.dir, e) {
			continue
		}
		if _, done := f.settled[e.Adj]; done {
			continue
		}
		tmp := base.weight + EdgeWeight(w, e)
		if old, ok := f.best[e.Adj]; ok && f.entries[old].weight <= tmp {
			continue
		}
		idx := int32(len(f.entries))
		f.entries = append(f.entries, entry{edge: e.ID, node: e.Adj, weight: tmp, parent: cur})
		f.best[e.Adj] = idx
		f.heap.Push(idx, tmp)
		if onImprove != nil {
			onImprove(idx)
		}
	}
}
