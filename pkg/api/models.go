package api

import (
	"github.com/azybler/chrouter/pkg/graph"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start LatLngJSON `json:"start"`
	End   LatLngJSON `json:"end"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	VisitedNodes    int          `json:"visited_nodes"`
	Geometry        []LatLngJSON `json:"geometry"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes     int    `json:"num_nodes"`
	NumBaseEdges int    `json:"num_base_edges"`
	NumShortcuts int    `json:"num_shortcuts"`
	Weighting    string `json:"weighting"`
	Fingerprint  string `json:"fingerprint"`
}

// NewStats describes a prepared graph.
func NewStats(g *graph.Graph, weighting string) StatsResponse {
	return StatsResponse{
		NumNodes:     g.NumNodes(),
		NumBaseEdges: g.NumBaseEdges(),
		NumShortcuts: g.NumShortcuts(),
		Weighting:    weighting,
		Fingerprint:  graph.Fingerprint(g),
	}
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
