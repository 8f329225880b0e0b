package utils

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance
const EarthRadiusMeters = 6371000

// Distance calculates the great-circle distance between two coordinates using the Haversine formula.
// Returns distance in meters. NaN inputs yield NaN.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// BoundingBox returns the lat/lng window that contains every point within radiusMeters of (lat, lon).
// Used as an index-friendly prefilter before the exact Haversine check.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = math.Min(180, dLat/cosLat)
	}
	return lat - dLat, lat + dLat, lon - dLon, lon + dLon
}

// LonRange is an inclusive longitude interval within [-180, 180]
type LonRange struct {
	Min, Max float64
}

// LongitudeRanges splits a BoundingBox longitude window that runs past ±180 into
// ranges on both sides of the antimeridian.
func LongitudeRanges(minLon, maxLon float64) []LonRange {
	switch {
	case maxLon-minLon >= 360:
		return []LonRange{{Min: -180, Max: 180}}
	case minLon < -180:
		return []LonRange{{Min: minLon + 360, Max: 180}, {Min: -180, Max: maxLon}}
	case maxLon > 180:
		return []LonRange{{Min: minLon, Max: 180}, {Min: -180, Max: maxLon - 360}}
	}
	return []LonRange{{Min: minLon, Max: maxLon}}
}

// Contains reports whether lon falls inside the interval
func (r LonRange) Contains(lon float64) bool {
	return lon >= r.Min && lon <= r.Max
}
