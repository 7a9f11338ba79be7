package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// degToMeters converts degree-scaled equirectangular distances to meters.
const degToMeters = math.Pi / 180 * earthRadiusMeters

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	sinLat := math.Sin((lat2 - lat1) * math.Pi / 360)
	sinLon := math.Sin((lon2 - lon1) * math.Pi / 360)

	a := sinLat*sinLat + math.Cos(phi1)*math.Cos(phi2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// MetersToDegrees returns the latitude and longitude spans of a distance
// around lat. Used to size spatial index search windows.
func MetersToDegrees(lat, meters float64) (dLat, dLon float64) {
	dLat = meters / degToMeters
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return dLat, 180
	}
	return dLat, math.Min(dLat/cosLat, 180)
}

// PointToSegmentDist returns the distance in meters from P to segment AB and
// the projection ratio along AB, clamped to [0,1]. It works in an
// equirectangular projection, which is accurate for snap-sized distances.
func PointToSegmentDist(pLat, pLon, aLat, aLon, bLat, bLon float64) (dist float64, ratio float64) {
	cosLat := math.Cos((aLat + bLat) / 2 * math.Pi / 180)

	ax, ay := aLon*cosLat, aLat
	bx, by := bLon*cosLat, bLat
	px, py := pLon*cosLat, pLat

	// Compare unprojected coordinates: cosLat noise can split identical points.
	if aLat == bLat && aLon == bLon {
		return math.Hypot(px-ax, py-ay) * degToMeters, 0
	}

	dx, dy := bx-ax, by-ay
	var t float64
	if lenSq := dx*dx + dy*dy; lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy)) * degToMeters, t
}
