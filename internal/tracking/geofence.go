package tracking

import (
	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
)

// FenceSignal is emitted when a fence crossing is confirmed
type FenceSignal string

const (
	SignalPickupEntered   FenceSignal = "pickup_entered"
	SignalPickupExited    FenceSignal = "pickup_exited"
	SignalDeliveryEntered FenceSignal = "delivery_entered"
	SignalDeliveryExited  FenceSignal = "delivery_exited"
	SignalRestrictedEnter FenceSignal = "restricted_entered"
	SignalRestrictedExit  FenceSignal = "restricted_exited"
)

// fenceState is the explicit per-fence hysteresis state: counters of
// consecutive in/out samples rather than a bare boolean, so the debounce is
// auditable in isolation.
type fenceState struct {
	inside      bool
	consecIn    int
	consecOut   int
}

// GeofenceEvaluator tests a driver's accepted positions against the fences
// for their current dispatch (plus static restricted zones) with hysteresis:
// entry and exit each require a configured number of consecutive confirming
// samples, which suppresses flapping at the fence edge. The evaluator is
// owned by a single driver lane and is not safe for concurrent use.
type GeofenceEvaluator struct {
	cfg    config.Tracking
	states map[string]*fenceState // fence ID -> hysteresis state
}

func NewGeofenceEvaluator(cfg config.Tracking) *GeofenceEvaluator {
	return &GeofenceEvaluator{
		cfg:    cfg,
		states: make(map[string]*fenceState),
	}
}

// Observe feeds one accepted position for one fence and returns a confirmed
// crossing signal, or "" when nothing toggled.
func (e *GeofenceEvaluator) Observe(fence models.Geofence, lat, lng float64) FenceSignal {
	st, ok := e.states[fence.ID]
	if !ok {
		st = &fenceState{}
		e.states[fence.ID] = st
	}

	if FenceContains(fence, lat, lng) {
		st.consecIn++
		st.consecOut = 0
		if !st.inside && st.consecIn >= e.cfg.HysteresisSamples {
			st.inside = true
			return e.enteredSignal(fence.Kind)
		}
		return ""
	}

	st.consecOut++
	st.consecIn = 0
	if st.inside && st.consecOut >= e.cfg.HysteresisSamples {
		st.inside = false
		return e.exitedSignal(fence.Kind)
	}
	return ""
}

// Reset drops all hysteresis state, e.g. when the active dispatch changes
func (e *GeofenceEvaluator) Reset() {
	e.states = make(map[string]*fenceState)
}

// ResetFence drops state for a single fence
func (e *GeofenceEvaluator) ResetFence(fenceID string) {
	delete(e.states, fenceID)
}

func (e *GeofenceEvaluator) enteredSignal(kind models.GeofenceKind) FenceSignal {
	switch kind {
	case models.GeofencePickup:
		return SignalPickupEntered
	case models.GeofenceDelivery:
		return SignalDeliveryEntered
	default:
		return SignalRestrictedEnter
	}
}

func (e *GeofenceEvaluator) exitedSignal(kind models.GeofenceKind) FenceSignal {
	switch kind {
	case models.GeofencePickup:
		return SignalPickupExited
	case models.GeofenceDelivery:
		return SignalDeliveryExited
	default:
		return SignalRestrictedExit
	}
}

// DispatchFences derives the pickup and delivery fences for a dispatch using
// the configured radius
func DispatchFences(d *models.Dispatch, radiusMeters float64) (pickup, delivery models.Geofence) {
	pickup = models.Geofence{
		ID:              d.ID + ":pickup",
		Kind:            models.GeofencePickup,
		Name:            "pickup",
		CenterLatitude:  d.PickupLatitude,
		CenterLongitude: d.PickupLongitude,
		RadiusMeters:    radiusMeters,
		DispatchID:      &d.ID,
	}
	delivery = models.Geofence{
		ID:              d.ID + ":delivery",
		Kind:            models.GeofenceDelivery,
		Name:            "delivery",
		CenterLatitude:  d.DeliveryLatitude,
		CenterLongitude: d.DeliveryLongitude,
		RadiusMeters:    radiusMeters,
		DispatchID:      &d.ID,
	}
	return pickup, delivery
}
