package tracking

import (
	"testing"

	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMiles(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineMiles(37.7749, -122.4194, 37.7749, -122.4194))
	})

	t.Run("SF to LA great-circle distance", func(t *testing.T) {
		miles := HaversineMiles(37.7749, -122.4194, 34.0522, -118.2437)
		assert.InDelta(t, 347.4, miles, 1.0)
	})

	t.Run("one thousandth of a degree latitude", func(t *testing.T) {
		miles := HaversineMiles(37.0, -122.0, 37.001, -122.0)
		assert.InDelta(t, 0.0691, miles, 0.001)
	})
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"origin", 0, 0, true},
		{"normal city", 40.7128, -74.0060, true},
		{"lat boundary", 90, 0, true},
		{"lng boundary", 0, -180, true},
		{"lat too high", 90.1, 0, false},
		{"lat too low", -91, 0, false},
		{"lng too high", 0, 181, false},
		{"lng too low", 0, -180.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCoordinates(tt.lat, tt.lng))
		})
	}
}

func TestFenceContains(t *testing.T) {
	fence := models.Geofence{
		ID:              "f1",
		Kind:            models.GeofencePickup,
		CenterLatitude:  37.0,
		CenterLongitude: -122.0,
		RadiusMeters:    100,
	}

	// 0.0005 deg latitude is roughly 56m, 0.002 deg roughly 222m
	assert.True(t, FenceContains(fence, 37.0, -122.0))
	assert.True(t, FenceContains(fence, 37.0005, -122.0))
	assert.False(t, FenceContains(fence, 37.002, -122.0))
}
