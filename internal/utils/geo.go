package utils

import (
	"math"
)

func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// BoundingBox returns the lat/lng bounds of a square around a center point
// that fully contains the given radius. It is a coarse prefilter for DB
// queries; callers apply the exact haversine predicate on the result.
func BoundingBox(lat, lng, radiusKM float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusKM / 111.0

	// Longitude degrees shrink toward the poles.
	lngDelta := radiusKM / (111.0 * math.Cos(lat*math.Pi/180))
	if lngDelta < 0 {
		lngDelta = -lngDelta
	}
	if lngDelta > 180 {
		lngDelta = 180
	}

	minLat = math.Max(lat-latDelta, -90)
	maxLat = math.Min(lat+latDelta, 90)
	minLng = math.Max(lng-lngDelta, -180)
	maxLng = math.Min(lng+lngDelta, 180)
	return minLat, maxLat, minLng, maxLng
}
