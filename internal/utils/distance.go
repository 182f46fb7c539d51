package utils

import (
	"math"
)

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Differences
	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// IsWithinRadius reports whether a point lies within radiusKM of a center.
func IsWithinRadius(centerLat, centerLon, pointLat, pointLon, radiusKM float64) bool {
	return HaversineKm(centerLat, centerLon, pointLat, pointLon) <= radiusKM
}

// RoundDistanceKm rounds a distance to two decimals for feed annotations.
func RoundDistanceKm(distance float64) float64 {
	return math.Round(distance*100) / 100
}
