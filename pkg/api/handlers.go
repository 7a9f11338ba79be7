package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"

	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/routing"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router routing.Router
	stats  StatsResponse
	etag   string
	logger *slog.Logger
}

// NewHandlers creates handlers with the given router. A nil logger uses
// slog.Default().
func NewHandlers(router routing.Router, stats StatsResponse, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		router: router,
		stats:  stats,
		logger: logger,
	}
	if stats.Fingerprint != "" {
		h.etag = fmt.Sprintf("%q", stats.Fingerprint)
	}
	return h
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "")
		return
	}

	if err := validateCoord(req.Start); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	result, err := h.router.Route(r.Context(), routing.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng}, routing.LatLng{Lat: req.End.Lat, Lng: req.End.Lng})
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrPointTooFar):
			writeError(w, r, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
		case errors.Is(err, routing.ErrNoRoute):
			writeError(w, r, http.StatusNotFound, "no_route_found", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, r, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			h.logger.Error("route failed", "error", err, "request_id", RequestID(r.Context()))
			writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	resp := RouteResponse{
		DistanceMeters:  result.TotalDistanceMeters,
		DurationSeconds: result.Duration.Seconds(),
		VisitedNodes:    result.VisitedNodes,
		Geometry:        make([]LatLngJSON, len(result.Geometry)),
	}
	for i, ll := range result.Geometry {
		resp.Geometry[i] = LatLngJSON{Lat: ll.Lat, Lng: ll.Lng}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats. The graph fingerprint doubles as the
// ETag, so clients can revalidate after a reload.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.etag != "" {
		w.Header().Set("ETag", h.etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == h.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field, RequestID: RequestID(r.Context())})
}
