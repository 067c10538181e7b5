// Package geo provides great-circle distance and walking-time helpers.
package geo

import (
	"math"

	"fieldnav/internal/model"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometers.
// Identical coordinates yield exactly 0.
func Distance(a, b model.GeoPoint) float64 {
	if a == b {
		return 0
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Clamp guards against h drifting above 1 for near-antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// TravelMinutes converts a distance to walking time at the given speed.
func TravelMinutes(distanceKm, speedKmh float64) float64 {
	return distanceKm / speedKmh * 60
}
