package ch

// NodeStats describes what contracting a node would do right now.
type NodeStats struct {
	Node uint32
	// Shortcuts is the number of shortcuts the contraction would need.
	Shortcuts int
	// Degree counts incident edges to uncontracted neighbors.
	Degree int
	// OriginalEdges is the number of base edges the needed shortcuts summarize.
	OriginalEdges int
	// ContractedNeighbors counts distinct neighbors that are already contracted.
	ContractedNeighbors int
	// Depth is one more than the deepest contracted neighbor's depth.
	Depth int
}

// EdgeDifference is the number of edges the contraction adds minus the
// number it takes out of the remaining graph.
func (s NodeStats) EdgeDifference() int { return s.Shortcuts - s.Degree }

// Scorer ranks nodes for contraction. Lower scores are contracted first.
type Scorer interface {
	Score(s NodeStats) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(s NodeStats) float64

// Score calls f(s).
func (f ScorerFunc) Score(s NodeStats) float64 { return f(s) }

// WeightedScorer is a linear combination of the node statistics.
type WeightedScorer struct {
	EdgeDifference      float64
	OriginalEdges       float64
	ContractedNeighbors float64
	Level               float64
}

// DefaultScorer weighs the edge difference ten times the tie breakers.
var DefaultScorer = WeightedScorer{EdgeDifference: 10, OriginalEdges: 1, ContractedNeighbors: 1}

// Score sums each statistic times its weight. Level weighs NodeStats.Depth.
func (w WeightedScorer) Score(s NodeStats) float64 {
	return w.EdgeDifference*float64(s.EdgeDifference()) +
		w.OriginalEdges*float64(s.OriginalEdges) +
		w.ContractedNeighbors*float64(s.ContractedNeighbors) +
		w.Level*float64(s.Depth)
}

// Priority queue implementation for contraction ordering. Ties are broken
// by node id.

type pqEntry struct {
	node     uint32
	priority float64
	index    int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	entry := x.(*pqEntry)
	entry.index = len(*pq)
	*pq = append(*pq, entry)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*pq = old[:n-1]
	return entry
}
