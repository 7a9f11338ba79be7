package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsReverse(t *testing.T) {
	f := Forward.WithPayload(90)

	assert.Equal(t, Backward, f.Reverse().Direction())
	assert.Equal(t, uint32(90), f.Reverse().Payload())
	assert.Equal(t, Both, Both.Reverse())
	assert.Equal(t, f, f.Reverse().Reverse())
	assert.True(t, Both.WithPayload(3).IsBoth())
	assert.Equal(t, Backward.WithPayload(7), f.WithDirection(Backward).WithPayload(7))
}

func TestOutgoingIncoming(t *testing.T) {
	g := New(3)
	e01 := g.AddEdge(0, 1, 10, Both)
	e12 := g.AddEdge(1, 2, 20, Forward)
	e20 := g.AddEdge(2, 0, 30, Backward) // traversable 0->2 only

	out := map[uint32]uint32{}
	for s := range g.Outgoing(0) {
		assert.Equal(t, uint32(0), s.Base)
		out[s.Adj] = s.ID
	}
	assert.Equal(t, map[uint32]uint32{1: e01, 2: e20}, out)

	in := map[uint32]uint32{}
	for s := range g.Incoming(2) {
		assert.Equal(t, uint32(2), s.Base)
		in[s.Adj] = s.ID
	}
	assert.Equal(t, map[uint32]uint32{1: e12, 0: e20}, in)

	for s := range g.Outgoing(2) {
		t.Errorf("node 2 should have no outgoing edge, got %d->%d", s.Base, s.Adj)
	}

	s, ok := g.EdgeState(e20, 0)
	require.True(t, ok)
	assert.Equal(t, Forward, s.Flags.Direction())
	assert.Equal(t, uint32(2), s.Adj)

	_, ok = g.EdgeState(e12, 0)
	assert.False(t, ok)
}

func TestAddEdgeGrowsNodes(t *testing.T) {
	g := New(0)
	g.AddEdge(4, 2, 1, Both)

	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, NoLevel, g.Level(3))
	assert.Equal(t, 1, g.Degree(4))
	assert.Equal(t, 0, g.Degree(3))
}

func TestShortcutBookkeeping(t *testing.T) {
	g := New(3)
	a := g.AddEdge(0, 1, 1, Both)
	b := g.AddEdge(1, 2, 2, Both)
	sc := g.AddShortcut(Edge{A: 0, B: 2, Weight: 3, Distance: 3, Flags: Forward, Skipped: [2]uint32{a, b}, OriginalEdges: 2})

	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, 1, g.NumShortcuts())
	assert.Equal(t, 2, g.NumBaseEdges())

	id, ok := g.FindShortcut(0, 2, Forward)
	require.True(t, ok)
	assert.Equal(t, sc, id)

	id, ok = g.FindShortcut(2, 0, Backward)
	require.True(t, ok, "same shortcut seen from the other end")
	assert.Equal(t, sc, id)

	_, ok = g.FindShortcut(0, 2, Both)
	assert.False(t, ok)
	_, ok = g.FindShortcut(0, 1, Both)
	assert.False(t, ok, "base edges are not shortcuts")

	g.UpdateShortcut(sc, 2.5, 2.5, [2]uint32{b, a}, 5)
	e := g.Edge(sc)
	assert.True(t, e.Shortcut)
	assert.True(t, e.HasSkipped())
	assert.Equal(t, 2.5, e.Weight)
	assert.Equal(t, [2]uint32{b, a}, e.Skipped)
	assert.Equal(t, uint32(5), e.OriginalEdges)
	assert.Equal(t, uint32(0), e.A, "endpoints are kept")
}

func TestLevels(t *testing.T) {
	g := New(3)
	assert.Equal(t, NoLevel, g.MaxLevel())

	g.SetLevel(2, 0)
	g.SetLevel(0, 1)
	assert.Equal(t, int32(1), g.MaxLevel())
	assert.Equal(t, NoLevel, g.Level(1))
}

func TestSelfLoopListedOnce(t *testing.T) {
	g := New(1)
	g.AddEdge(0, 0, 5, Both)

	n := 0
	for range g.Edges(0) {
		n++
	}
	assert.Equal(t, 1, n)
}
