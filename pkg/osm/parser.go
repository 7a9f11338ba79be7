package osm

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/geo"
)

// minDistance keeps coincident nodes from producing zero-length edges.
const minDistance = 0.001

// RawEdge is one way segment between two consecutive OSM nodes. Forward
// means From->To is drivable, Backward means To->From is.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Distance   float64 // meters
	Forward    bool
	Backward   bool
	SpeedKmh   int
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// highwaySpeeds holds the assumed car speed in km/h per highway class when a
// way has no usable maxspeed tag.
var highwaySpeeds = map[string]int{
	"motorway":       100,
	"motorway_link":  70,
	"trunk":          70,
	"trunk_link":     65,
	"primary":        65,
	"primary_link":   60,
	"secondary":      60,
	"secondary_link": 50,
	"tertiary":       50,
	"tertiary_link":  40,
	"unclassified":   30,
	"residential":    30,
	"living_street":  5,
	"service":        20,
}

// parseMaxSpeed reads a maxspeed tag value in km/h. Plain numbers are km/h,
// a "mph" suffix is converted. Anything else reports false.
func parseMaxSpeed(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	factor := 1.0
	if num, ok := strings.CutSuffix(v, "mph"); ok {
		v = strings.TrimSpace(num)
		factor = 1.609344
	} else if num, ok := strings.CutSuffix(v, "km/h"); ok {
		v = strings.TrimSpace(num)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f*factor + 0.5), true
}

// carSpeed returns the speed for a way: its maxspeed when present, otherwise
// the highway class default.
func carSpeed(tags osm.Tags) int {
	if s, ok := parseMaxSpeed(tags.Find("maxspeed")); ok {
		return s
	}
	if s, ok := highwaySpeeds[tags.Find("highway")]; ok {
		return s
	}
	return highwaySpeeds["unclassified"]
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	// Default: bidirectional.
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	// Explicit oneway tag overrides.
	oneway := tags.Find("oneway")
	switch oneway {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent — skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
	SpeedKmh int
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox   BBox         // if non-zero, filter edges to this bounding box
	Logger *slog.Logger // defaults to slog.Default()
}

// Parse reads an OSM PBF file and returns way segments for car routing.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		obj := scanner.Object()
		w, ok := obj.(*osm.Way)
		if !ok {
			continue
		}

		if !isCarAccessible(w.Tags) {
			continue
		}

		if len(w.Nodes) < 2 {
			continue
		}

		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}

		ways = append(ways, wayInfo{
			NodeIDs:  nodeIDs,
			Forward:  fwd,
			Backward: bwd,
			SpeedKmh: carSpeed(w.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete", "ways", len(ways), "referenced_nodes", len(referencedNodes))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		obj := scanner.Object()
		n, ok := obj.(*osm.Node)
		if !ok {
			continue
		}

		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}

		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", "coordinates", len(nodeLat))

	// Build edges from ways.
	var edges []RawEdge
	var skippedEdges int
	var bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]

			if !fromOk || !toOk {
				skippedEdges++
				continue
			}

			// Bounding box filter: skip edges with any endpoint outside.
			if useBBox && (!opt.BBox.Contains(fromLat, fromLon) || !opt.BBox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			dist := max(geo.Haversine(fromLat, fromLon, toLat, toLon), minDistance)
			edges = append(edges, RawEdge{
				FromNodeID: fromID,
				ToNodeID:   toID,
				Distance:   dist,
				Forward:    w.Forward,
				Backward:   w.Backward,
				SpeedKmh:   w.SpeedKmh,
			})
		}
	}

	if skippedEdges > 0 {
		logger.Warn("skipped edges with missing node coordinates", "edges", skippedEdges)
	}
	if bboxFiltered > 0 {
		logger.Info("filtered edges outside bounding box", "edges", bboxFiltered)
	}
	logger.Info("built way segments", "edges", len(edges))

	return &ParseResult{
		Edges:   edges,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}
