package tracking

import (
	"testing"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorIncrement(t *testing.T) {
	acc := NewAccumulator(config.Default())

	t.Run("first fix contributes nothing", func(t *testing.T) {
		state := &models.DriverRuntimeState{DriverID: "driver-1"}
		miles := acc.Increment(state, testPing(37.0, -122.0, 10, 1000))
		assert.Equal(t, 0.0, miles)
	})

	t.Run("half mile step", func(t *testing.T) {
		state := &models.DriverRuntimeState{
			HasFix:         true,
			LastLatitude:   37.0,
			LastLongitude:  -122.0,
			LastCapturedAt: 1000,
		}
		miles := acc.Increment(state, testPing(37.007237, -122.0, 10, 1060))
		assert.InDelta(t, 0.5, miles, 0.005)
	})

	t.Run("same position contributes nothing", func(t *testing.T) {
		state := &models.DriverRuntimeState{
			HasFix:        true,
			LastLatitude:  37.0,
			LastLongitude: -122.0,
		}
		miles := acc.Increment(state, testPing(37.0, -122.0, 10, 1060))
		assert.Equal(t, 0.0, miles)
	})

	t.Run("stationary jitter is capped", func(t *testing.T) {
		state := &models.DriverRuntimeState{
			HasFix:        true,
			LastLatitude:  37.0,
			LastLongitude: -122.0,
		}
		p := testPing(37.007237, -122.0, 10, 1060) // half a mile of drift
		p.IsMoving = false
		p.ActivityType = models.ActivityStationary

		miles := acc.Increment(state, p)
		assert.Equal(t, config.Default().StationaryCapMiles, miles)
	})

	t.Run("stationary flag alone triggers the cap", func(t *testing.T) {
		state := &models.DriverRuntimeState{
			HasFix:        true,
			LastLatitude:  37.0,
			LastLongitude: -122.0,
		}
		p := testPing(37.007237, -122.0, 10, 1060)
		p.ActivityType = models.ActivityStationary // IsMoving still true

		miles := acc.Increment(state, p)
		assert.Equal(t, config.Default().StationaryCapMiles, miles)
	})
}

func TestAccumulatorApply(t *testing.T) {
	acc := NewAccumulator(config.Default())

	state := &models.DriverRuntimeState{DriverID: "driver-1", ShiftID: "shift-1"}
	ledger := &models.ShiftMileage{ShiftID: "shift-1", DriverID: "driver-1"}

	p1 := testPing(37.0, -122.0, 10, 1000)
	acc.Apply(state, ledger, p1, acc.Increment(state, p1))

	assert.True(t, state.HasFix)
	assert.Equal(t, 37.0, state.LastLatitude)
	assert.Equal(t, int64(1000), state.LastCapturedAt)
	assert.Equal(t, 0.0, state.CumulativeMiles)
	assert.Equal(t, 1, ledger.GpsSampleCount)

	p2 := testPing(37.007237, -122.0, 20, 1060)
	acc.Apply(state, ledger, p2, acc.Increment(state, p2))

	assert.InDelta(t, 0.5, state.CumulativeMiles, 0.005)
	assert.InDelta(t, 0.5, ledger.GpsDistanceMiles, 0.005)
	assert.Equal(t, 2, ledger.GpsSampleCount)
	assert.Equal(t, 30.0, ledger.AccuracySumMeters)
	assert.Equal(t, 15.0, ledger.AverageAccuracyMeters())
}

// Cumulative mileage only ever grows, ping by ping, no matter how the driver
// moves.
func TestAccumulatorMonotonic(t *testing.T) {
	acc := NewAccumulator(config.Default())
	state := &models.DriverRuntimeState{DriverID: "driver-1"}
	ledger := &models.ShiftMileage{ShiftID: "shift-1"}

	// Drive north, back south, and sit still
	path := []*models.LocationPing{
		testPing(37.000, -122.0, 10, 1000),
		testPing(37.004, -122.0, 10, 1060),
		testPing(37.008, -122.0, 10, 1120),
		testPing(37.004, -122.0, 10, 1180),
		testPing(37.000, -122.0, 10, 1240),
		testPing(37.000, -122.0, 10, 1300),
	}

	prev := 0.0
	for _, p := range path {
		miles := acc.Increment(state, p)
		assert.GreaterOrEqual(t, miles, 0.0)
		acc.Apply(state, ledger, p, miles)
		assert.GreaterOrEqual(t, state.CumulativeMiles, prev)
		prev = state.CumulativeMiles
	}

	// Out-and-back covers the path length, not the zero displacement
	assert.InDelta(t, 1.105, state.CumulativeMiles, 0.01)
}
