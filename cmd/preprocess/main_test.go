package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/ch"
	"github.com/azybler/chrouter/pkg/config"
	"github.com/azybler/chrouter/pkg/graph"
	"github.com/azybler/chrouter/pkg/weighting"
)

func TestParseBBox(t *testing.T) {
	b, err := parseBBox("1.15,103.6,1.48,104.1", false, false)
	require.NoError(t, err)
	assert.Equal(t, 1.15, b.MinLat)
	assert.Equal(t, 104.1, b.MaxLng)

	b, err = parseBBox("", false, false)
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	b, err = parseBBox("ignored", true, false)
	require.NoError(t, err)
	assert.Equal(t, 1.48, b.MaxLat, "region shortcut wins over --bbox")

	_, err = parseBBox("1,2,3", false, false)
	assert.Error(t, err)
	_, err = parseBBox("2,2,1,3", false, false)
	assert.Error(t, err)
}

func TestPrepareGraph(t *testing.T) {
	// A chain 0-1-2-3 plus a detached pair 4-5.
	g := graph.New(6)
	for _, e := range [][2]uint32{{0, 1}, {1, 2}, {2, 3}, {4, 5}} {
		g.AddEdge(e[0], e[1], 100, weighting.CarFlags(50, true, true))
	}
	g.NodeLat = []float64{1, 1, 1, 1, 2, 2}
	g.NodeLon = []float64{103, 103.001, 103.002, 103.003, 103, 103.001}

	cfg := config.Default().Preprocess
	out, err := prepareGraph(g, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, 4, out.NumNodes(), "largest component only")
	assert.Equal(t, 3, out.NumBaseEdges())
	for n := range uint32(out.NumNodes()) {
		assert.NotEqual(t, graph.NoLevel, out.Level(n), "node %d left uncontracted", n)
	}

	q, err := ch.NewQuery(out, weighting.NewFastest())
	require.NoError(t, err)
	p, err := q.Find(0, 3)
	require.NoError(t, err)
	assert.True(t, p.Found)
	assert.Equal(t, 300.0, p.Distance)
}

func TestPrepareGraphUnknownWeighting(t *testing.T) {
	cfg := config.Default().Preprocess
	cfg.Weighting = "bike"
	_, err := prepareGraph(graph.New(0), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, weighting.ErrUnknownWeighting)
}
