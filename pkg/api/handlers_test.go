package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/routing"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.RouteResult
	err    error
}

func (m *mockRouter) Route(ctx context.Context, start, end routing.LatLng) (*routing.RouteResult, error) {
	return m.result, m.err
}

const validBody = `{"start":{"lat":1.3,"lng":103.8},"end":{"lat":1.35,"lng":103.85}}`

func postRoute(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)
	return w
}

func TestHandleRoute_Success(t *testing.T) {
	mock := &mockRouter{
		result: &routing.RouteResult{
			TotalDistanceMeters: 1234.5,
			Duration:            90 * time.Second,
			VisitedNodes:        17,
			Geometry: []routing.LatLng{
				{Lat: 1.3, Lng: 103.8},
				{Lat: 1.35, Lng: 103.85},
			},
		},
	}
	h := NewHandlers(mock, StatsResponse{NumNodes: 100}, quietLog)

	w := postRoute(h, validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DistanceMeters != 1234.5 {
		t.Errorf("DistanceMeters = %f, want 1234.5", resp.DistanceMeters)
	}
	if resp.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %f, want 90", resp.DurationSeconds)
	}
	if resp.VisitedNodes != 17 {
		t.Errorf("VisitedNodes = %d, want 17", resp.VisitedNodes)
	}
	if len(resp.Geometry) != 2 || resp.Geometry[1] != (LatLngJSON{Lat: 1.35, Lng: 103.85}) {
		t.Errorf("Geometry = %v", resp.Geometry)
	}
}

func TestHandleRoute_InvalidJSON(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, quietLog)

	w := postRoute(h, "not json")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_MissingContentType(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, quietLog)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(validBody))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_OutOfBounds(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, quietLog)

	w := postRoute(h, `{"start":{"lat":1.3,"lng":103.8},"end":{"lat":1.35,"lng":190}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "invalid_coordinates" || resp.Field != "end" {
		t.Errorf("error = %+v, want invalid_coordinates on end", resp)
	}
}

func TestHandleRoute_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"no route", routing.ErrNoRoute, http.StatusNotFound, "no_route_found"},
		{"point too far", routing.ErrPointTooFar, http.StatusUnprocessableEntity, "point_too_far_from_road"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&mockRouter{err: tt.err}, StatsResponse{}, quietLog)

			w := postRoute(h, validBody)

			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.want {
				t.Errorf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{}, quietLog)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	stats := StatsResponse{NumNodes: 500000, NumBaseEdges: 1000000, NumShortcuts: 900000, Weighting: "fastest", Fingerprint: "abc123"}
	h := NewHandlers(&mockRouter{}, stats, quietLog)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("ETag"); got != `"abc123"` {
		t.Errorf("ETag = %s, want \"abc123\"", got)
	}

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp != stats {
		t.Errorf("stats = %+v, want %+v", resp, stats)
	}
}

func TestHandleStats_NotModified(t *testing.T) {
	h := NewHandlers(&mockRouter{}, StatsResponse{Fingerprint: "abc123"}, quietLog)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("If-None-Match", `"abc123"`)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}
