package ch

import (
	"container/heap"
	"math"
	"slices"
	"time"

	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/routing"
	"github.com/azybler/chrouter/pkg/weighting"
)

// ErrNilGraph is returned when a preparation is built without a graph.
var ErrNilGraph = routing.ErrNilGraph

// Option configures a Preparation.
type Option func(*Preparation)

// WithScorer sets the contraction order heuristic. Default: DefaultScorer.
func WithScorer(s Scorer) Option {
	return func(p *Preparation) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithMaxSettled limits each witness search. Default: DefaultMaxSettled.
func WithMaxSettled(n int) Option {
	return func(p *Preparation) { p.maxSettled = n }
}

// WithLogger sets the progress logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Preparation) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLogInterval logs progress every n contracted nodes. Zero picks an
// interval that shrinks as the remaining node count does.
func WithLogInterval(n int) Option {
	return func(p *Preparation) { p.logInterval = n }
}

// Stats summarizes a contraction run.
type Stats struct {
	Nodes           int // nodes contracted by the run
	Shortcuts       int // shortcut edges created by the run
	BaseEdgesBefore int
	BaseEdgesAfter  int
	Elapsed         time.Duration
}

// Preparation contracts the nodes of a graph in priority order, inserting
// the shortcuts that keep shortest paths intact and assigning every node a
// level. Nodes that already have a level, e.g. from TowerNodes, are treated
// as contracted.
//
// Contraction mutates the graph in place and must not run concurrently
// with queries on it.
type Preparation struct {
	g           *graph.Graph
	w           weighting.Weighting
	witness     *WitnessSearch
	scorer      Scorer
	maxSettled  int
	logger      *slog.Logger
	logInterval int

	pq                  priorityQueue
	contractedNeighbors []int
	depth               []int
	nextLevel           int32
	total               int
	done                int
	shortcuts           int
	initialized         bool

	// scratch
	in, out []arc
	goals   []routing.Goal
	nbrs    []uint32
}

// NewPreparation creates a contraction over g.
func NewPreparation(g *graph.Graph, w weighting.Weighting, opts ...Option) (*Preparation, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if w == nil {
		return nil, routing.ErrNilWeighting
	}
	p := &Preparation{
		g:          g,
		w:          w,
		scorer:     DefaultScorer,
		maxSettled: DefaultMaxSettled,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	ws, err := NewWitnessSearch(g, w, p.maxSettled)
	if err != nil {
		return nil, err
	}
	p.witness = ws
	return p, nil
}

func (p *Preparation) isContracted(n uint32) bool { return p.g.Level(n) != graph.NoLevel }

// neighbors returns the distinct neighbors of node, itself excluded. The
// slice is reused by the next call.
func (p *Preparation) neighbors(node uint32) []uint32 {
	p.nbrs = p.nbrs[:0]
	for e := range p.g.Edges(node) {
		if e.Adj != node && !slices.Contains(p.nbrs, e.Adj) {
			p.nbrs = append(p.nbrs, e.Adj)
		}
	}
	return p.nbrs
}

// Initialize scores every uncontracted node and fills the queue.
func (p *Preparation) Initialize() {
	n := p.g.NumNodes()
	p.nextLevel = p.g.MaxLevel() + 1
	p.contractedNeighbors = make([]int, n)
	p.depth = make([]int, n)
	p.done, p.shortcuts = 0, 0

	for node := range uint32(n) {
		if p.isContracted(node) {
			continue
		}
		for _, nb := range p.neighbors(node) {
			if p.isContracted(nb) {
				p.contractedNeighbors[node]++
			}
		}
	}

	p.pq = make(priorityQueue, 0, n)
	for node := range uint32(n) {
		if p.isContracted(node) {
			continue
		}
		st, _ := p.stats(node)
		p.pq = append(p.pq, &pqEntry{node: node, priority: p.scorer.Score(st), index: len(p.pq)})
	}
	heap.Init(&p.pq)
	p.total = p.pq.Len()
	p.initialized = true
}

// stats simulates the contraction of node.
func (p *Preparation) stats(node uint32) (NodeStats, []Shortcut) {
	found := p.FindShortcuts(node)
	st := NodeStats{
		Node:                node,
		Shortcuts:           len(found),
		ContractedNeighbors: p.contractedNeighbors[node],
		Depth:               p.depth[node],
	}
	for _, sc := range found {
		st.OriginalEdges += int(sc.OriginalEdges)
	}
	for e := range p.g.Edges(node) {
		if e.Adj != node && !p.isContracted(e.Adj) {
			st.Degree++
		}
	}
	return st, found
}

// ContractNext contracts the node with the lowest score. The popped node is
// rescored first and goes back into the queue if it no longer beats the
// next one. ok is false once every node is contracted.
func (p *Preparation) ContractNext() (node uint32, ok bool) {
	if !p.initialized {
		p.Initialize()
	}
	for p.pq.Len() > 0 {
		entry := heap.Pop(&p.pq).(*pqEntry)
		st, found := p.stats(entry.node)
		score := p.scorer.Score(st)
		if p.pq.Len() > 0 && score > p.pq[0].priority {
			entry.priority = score
			heap.Push(&p.pq, entry)
			continue
		}
		p.apply(entry.node, found)
		return entry.node, true
	}
	return graph.NoNode, false
}

// FindShortcuts returns the shortcuts contracting node would need right
// now. For every uncontracted in-neighbor u a single witness search covers
// all out-neighbors w; a pair gets a shortcut when no path avoiding node is
// at most as heavy as u -> node -> w.
func (p *Preparation) FindShortcuts(node uint32) []Shortcut {
	p.in = lightestArcs(p.w, p.g.Incoming(node), p.isContracted, p.in)
	p.out = lightestArcs(p.w, p.g.Outgoing(node), p.isContracted, p.out)
	if len(p.in) == 0 || len(p.out) == 0 {
		return nil
	}

	var found []Shortcut
	for _, in := range p.in {
		p.goals = p.goals[:0]
		for _, out := range p.out {
			if out.adj != in.adj {
				p.goals = append(p.goals, routing.Goal{Node: out.adj, Bound: in.weight + out.weight})
			}
		}
		if len(p.goals) == 0 {
			continue
		}

		res := p.witness.Search(in.adj, p.goals, node)
		i := 0
		for _, out := range p.out {
			if out.adj == in.adj {
				continue
			}
			if res[i] > p.goals[i].Bound {
				found = append(found, join(in, out))
			}
			i++
		}
	}
	return mergeOpposite(found)
}

// mergeOpposite folds u->w and w->u candidates built from the same two
// edges with the same weight into one bidirectional shortcut.
func mergeOpposite(found []Shortcut) []Shortcut {
	if len(found) < 2 {
		return found
	}
	merged := make([]Shortcut, 0, len(found))
	used := make([]bool, len(found))
	for i, sc := range found {
		if used[i] {
			continue
		}
		for j := i + 1; j < len(found); j++ {
			o := found[j]
			if used[j] || o.From != sc.To || o.To != sc.From || o.Weight != sc.Weight {
				continue
			}
			if o.Skipped == [2]uint32{sc.Skipped[1], sc.Skipped[0]} {
				sc.Flags = graph.Both
				used[j] = true
				break
			}
		}
		merged = append(merged, sc)
	}
	return merged
}

// Contract contracts node immediately, bypassing the queue, and returns the
// shortcuts it needed. Nodes that are out of range or already contracted
// are left alone and yield nil.
func (p *Preparation) Contract(node uint32) []Shortcut {
	if node >= uint32(p.g.NumNodes()) {
		return nil
	}
	if !p.initialized {
		p.Initialize()
	}
	if p.isContracted(node) {
		return nil
	}
	found := p.FindShortcuts(node)
	p.apply(node, found)
	if i := slices.IndexFunc(p.pq, func(e *pqEntry) bool { return e.node == node }); i >= 0 {
		heap.Remove(&p.pq, i)
	}
	return found
}

func (p *Preparation) apply(node uint32, found []Shortcut) {
	for _, sc := range found {
		if insertShortcut(p.g, sc) {
			p.shortcuts++
		}
	}
	p.g.SetLevel(node, p.nextLevel)
	p.nextLevel++
	p.done++

	for _, nb := range p.neighbors(node) {
		if p.isContracted(nb) {
			continue
		}
		p.contractedNeighbors[nb]++
		p.depth[nb] = max(p.depth[nb], p.depth[node]+1)
	}
}

// Run contracts every remaining node.
func (p *Preparation) Run() Stats {
	start := time.Now()
	before := p.g.NumBaseEdges()

	p.Initialize()
	p.logger.Info("contraction started", "nodes", p.total)

	for {
		if _, ok := p.ContractNext(); !ok {
			break
		}
		if p.done%p.interval(p.total-p.done) == 0 {
			p.logger.Info("contraction progress", "done", p.done, "total", p.total, "shortcuts", p.shortcuts)
		}
	}

	stats := Stats{
		Nodes:           p.done,
		Shortcuts:       p.shortcuts,
		BaseEdgesBefore: before,
		BaseEdgesAfter:  p.g.NumBaseEdges(),
		Elapsed:         time.Since(start),
	}
	ratio := 0.0
	if before > 0 {
		ratio = float64(stats.Shortcuts) / float64(before)
	}
	p.logger.Info("contraction complete",
		"shortcuts", stats.Shortcuts,
		"ratio", math.Round(ratio*10)/10,
		"elapsed", stats.Elapsed)
	return stats
}

// interval returns the progress log interval: frequent near the end.
func (p *Preparation) interval(remaining int) int {
	if p.logInterval > 0 {
		return p.logInterval
	}
	switch {
	case remaining < 1000:
		return 100
	case remaining < 10000:
		return 1000
	case remaining < 100000:
		return 10000
	default:
		return 50000
	}
}

// Graph returns the graph being contracted.
func (p *Preparation) Graph() *graph.Graph { return p.g }
