package tracking

import (
	"testing"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

// testPing builds a moving, driving-class sample. Shared across the package
// tests.
func testPing(lat, lng, accuracy float64, capturedAt int64) *models.LocationPing {
	return &models.LocationPing{
		DriverID:     "driver-1",
		Latitude:     lat,
		Longitude:    lng,
		Accuracy:     accuracy,
		IsMoving:     true,
		ActivityType: models.ActivityDriving,
		CapturedAt:   capturedAt,
	}
}

func TestQualityFilterCheck(t *testing.T) {
	f := NewQualityFilter(config.Default())

	noFix := &models.DriverRuntimeState{DriverID: "driver-1", ShiftID: "shift-1"}
	withFix := &models.DriverRuntimeState{
		DriverID:       "driver-1",
		ShiftID:        "shift-1",
		HasFix:         true,
		LastLatitude:   37.0,
		LastLongitude:  -122.0,
		LastCapturedAt: 1000,
	}

	tests := []struct {
		name       string
		state      *models.DriverRuntimeState
		ping       *models.LocationPing
		wantOK     bool
		wantReason RejectReason
	}{
		{
			name:   "first fix accepted as baseline",
			state:  noFix,
			ping:   testPing(37.0, -122.0, 10, 1000),
			wantOK: true,
		},
		{
			name:       "latitude out of range",
			state:      noFix,
			ping:       testPing(95.0, -122.0, 10, 1000),
			wantReason: RejectBadCoordinates,
		},
		{
			name:       "longitude out of range",
			state:      withFix,
			ping:       testPing(37.0, -200.0, 10, 1060),
			wantReason: RejectBadCoordinates,
		},
		{
			name:       "accuracy worse than threshold",
			state:      withFix,
			ping:       testPing(37.0, -122.0, 51, 1060),
			wantReason: RejectAccuracy,
		},
		{
			name:       "accuracy rejected even without a baseline",
			state:      noFix,
			ping:       testPing(37.0, -122.0, 120, 1000),
			wantReason: RejectAccuracy,
		},
		{
			name:       "older than last accepted",
			state:      withFix,
			ping:       testPing(37.0001, -122.0, 10, 999),
			wantReason: RejectOutOfOrder,
		},
		{
			name:       "equal timestamp is a replay",
			state:      withFix,
			ping:       testPing(37.0001, -122.0, 10, 1000),
			wantReason: RejectOutOfOrder,
		},
		{
			// roughly 49 miles in one second
			name:       "teleport jump",
			state:      withFix,
			ping:       testPing(37.72, -122.0, 10, 1001),
			wantReason: RejectImpliedSpeed,
		},
		{
			// roughly 0.5 miles in 60 seconds, about 30 mph
			name:   "plausible motion accepted",
			state:  withFix,
			ping:   testPing(37.007237, -122.0, 10, 1060),
			wantOK: true,
		},
		{
			// 49 miles is fine given half an hour
			name:   "long gap allows long distance",
			state:  withFix,
			ping:   testPing(37.72, -122.0, 10, 1000+1800),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, detail, ok := f.Check(tt.state, tt.ping)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantReason, reason)
				assert.NotEmpty(t, detail)
			}
		})
	}
}

func TestQualityFilterDoesNotMutateState(t *testing.T) {
	f := NewQualityFilter(config.Default())
	state := &models.DriverRuntimeState{
		DriverID:        "driver-1",
		HasFix:          true,
		LastLatitude:    37.0,
		LastLongitude:   -122.0,
		LastCapturedAt:  1000,
		CumulativeMiles: 3.5,
	}
	before := *state

	f.Check(state, testPing(37.007237, -122.0, 10, 1060))
	f.Check(state, testPing(95.0, -122.0, 10, 1120))

	assert.Equal(t, before, *state, "filter must be read-only; only the accumulator advances state")
}
