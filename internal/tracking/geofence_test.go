package tracking

import (
	"testing"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func pickupFence() models.Geofence {
	return models.Geofence{
		ID:              "disp-1:pickup",
		Kind:            models.GeofencePickup,
		Name:            "pickup",
		CenterLatitude:  37.0,
		CenterLongitude: -122.0,
		RadiusMeters:    100,
	}
}

// Roughly 56m and 222m from the fence center
const (
	insideLat  = 37.0005
	outsideLat = 37.002
)

func TestGeofenceHysteresis(t *testing.T) {
	t.Run("entry needs consecutive confirming samples", func(t *testing.T) {
		e := NewGeofenceEvaluator(config.Default())
		fence := pickupFence()

		assert.Equal(t, FenceSignal(""), e.Observe(fence, insideLat, -122.0))
		assert.Equal(t, SignalPickupEntered, e.Observe(fence, insideLat, -122.0))
	})

	t.Run("exit needs consecutive confirming samples", func(t *testing.T) {
		e := NewGeofenceEvaluator(config.Default())
		fence := pickupFence()

		e.Observe(fence, insideLat, -122.0)
		e.Observe(fence, insideLat, -122.0) // entered

		assert.Equal(t, FenceSignal(""), e.Observe(fence, outsideLat, -122.0))
		assert.Equal(t, SignalPickupExited, e.Observe(fence, outsideLat, -122.0))
	})

	t.Run("flapping at the edge emits nothing", func(t *testing.T) {
		e := NewGeofenceEvaluator(config.Default())
		fence := pickupFence()

		lats := []float64{insideLat, outsideLat, insideLat, outsideLat, insideLat, outsideLat}
		for _, lat := range lats {
			assert.Equal(t, FenceSignal(""), e.Observe(fence, lat, -122.0),
				"alternating samples must keep resetting the counters")
		}
	})

	t.Run("flapping then settling emits at most one entry", func(t *testing.T) {
		e := NewGeofenceEvaluator(config.Default())
		fence := pickupFence()

		entries := 0
		lats := []float64{insideLat, outsideLat, insideLat, insideLat, insideLat, insideLat}
		for _, lat := range lats {
			if e.Observe(fence, lat, -122.0) == SignalPickupEntered {
				entries++
			}
		}
		assert.Equal(t, 1, entries)
	})

	t.Run("no exit without a prior entry", func(t *testing.T) {
		e := NewGeofenceEvaluator(config.Default())
		fence := pickupFence()

		for i := 0; i < 5; i++ {
			assert.Equal(t, FenceSignal(""), e.Observe(fence, outsideLat, -122.0))
		}
	})

	t.Run("higher sample requirement delays the flip", func(t *testing.T) {
		cfg := config.Default()
		cfg.HysteresisSamples = 4
		e := NewGeofenceEvaluator(cfg)
		fence := pickupFence()

		for i := 0; i < 3; i++ {
			assert.Equal(t, FenceSignal(""), e.Observe(fence, insideLat, -122.0))
		}
		assert.Equal(t, SignalPickupEntered, e.Observe(fence, insideLat, -122.0))
	})
}

func TestGeofenceSignalsByKind(t *testing.T) {
	e := NewGeofenceEvaluator(config.Default())

	delivery := pickupFence()
	delivery.ID = "disp-1:delivery"
	delivery.Kind = models.GeofenceDelivery

	restricted := pickupFence()
	restricted.ID = "zone-1"
	restricted.Kind = models.GeofenceRestricted

	e.Observe(delivery, insideLat, -122.0)
	assert.Equal(t, SignalDeliveryEntered, e.Observe(delivery, insideLat, -122.0))

	e.Observe(restricted, insideLat, -122.0)
	assert.Equal(t, SignalRestrictedEnter, e.Observe(restricted, insideLat, -122.0))

	e.Observe(restricted, outsideLat, -122.0)
	assert.Equal(t, SignalRestrictedExit, e.Observe(restricted, outsideLat, -122.0))
}

func TestGeofenceResetFence(t *testing.T) {
	e := NewGeofenceEvaluator(config.Default())
	fence := pickupFence()

	e.Observe(fence, insideLat, -122.0)
	e.Observe(fence, insideLat, -122.0) // entered

	// Dropping the fence state means the next dispatch starts clean: entry
	// fires again instead of being swallowed by stale "inside"
	e.ResetFence(fence.ID)

	assert.Equal(t, FenceSignal(""), e.Observe(fence, insideLat, -122.0))
	assert.Equal(t, SignalPickupEntered, e.Observe(fence, insideLat, -122.0))
}

func TestDispatchFences(t *testing.T) {
	d := &models.Dispatch{
		ID:                "disp-9",
		DriverID:          "driver-1",
		PickupLatitude:    37.0,
		PickupLongitude:   -122.0,
		DeliveryLatitude:  37.004,
		DeliveryLongitude: -122.0,
		Status:            models.DispatchAssigned,
	}

	pickup, delivery := DispatchFences(d, 150)

	assert.Equal(t, "disp-9:pickup", pickup.ID)
	assert.Equal(t, models.GeofencePickup, pickup.Kind)
	assert.Equal(t, 37.0, pickup.CenterLatitude)
	assert.Equal(t, 150.0, pickup.RadiusMeters)

	assert.Equal(t, "disp-9:delivery", delivery.ID)
	assert.Equal(t, models.GeofenceDelivery, delivery.Kind)
	assert.Equal(t, 37.004, delivery.CenterLatitude)
}
