package tracking

import (
	"math"

	"fleetpulse-backend/internal/models"
)

const (
	earthRadiusKm  = 6371.0
	kmPerMile      = 1.609344
	metersPerMile  = 1609.344
	secondsPerHour = 3600.0
)

// haversineKm calculates the great-circle distance between two GPS
// coordinates in kilometers over the WGS84 sphere approximation
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// HaversineMiles is haversineKm converted to statute miles
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineKm(lat1, lon1, lat2, lon2) / kmPerMile
}

// MetersBetween returns the great-circle distance in meters
func MetersBetween(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineKm(lat1, lon1, lat2, lon2) * 1000
}

// FenceContains tests whether a point falls inside a circular geofence
func FenceContains(f models.Geofence, lat, lng float64) bool {
	return MetersBetween(f.CenterLatitude, f.CenterLongitude, lat, lng) <= f.RadiusMeters
}

// ValidCoordinates rejects NaN and out-of-range lat/lng pairs
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
