package tracking

import (
	"fmt"

	"fleetpulse-backend/internal/models"
)

// TriggerCause records what produced a transition, for audit
type TriggerCause string

const (
	CauseGeofence TriggerCause = "geofence"
	CauseManual   TriggerCause = "manual"
)

// Trigger is an input to the dispatch status state machine
type Trigger string

const (
	TriggerPickupEntered   Trigger = "pickup_entered"
	TriggerPickupExited    Trigger = "pickup_exited"
	TriggerDeliveryEntered Trigger = "delivery_entered"
	TriggerManualAdvance   Trigger = "manual_advance"
	TriggerComplete        Trigger = "complete"
)

// NextStatus resolves a trigger against the current status. The lifecycle is
// strictly ordered and non-skippable:
//
//	assigned -> arrived_at_vendor    pickup fence entered, or driver action
//	arrived_at_vendor -> en_route    pickup fence exited, or driver action
//	en_route -> arrived_to_client    delivery fence entered only
//	arrived_to_client -> completed   explicit action only ("arrived" does not
//	                                 imply "handed off")
//
// Any other (status, trigger) pair is not applicable: duplicates and stale
// signals are rejected by the caller as out-of-order, never applied.
func NextStatus(current models.DispatchStatus, trig Trigger) (models.DispatchStatus, bool) {
	switch current {
	case models.DispatchAssigned:
		if trig == TriggerPickupEntered || trig == TriggerManualAdvance {
			return models.DispatchArrivedAtVendor, true
		}
	case models.DispatchArrivedAtVendor:
		if trig == TriggerPickupExited || trig == TriggerManualAdvance {
			return models.DispatchEnRouteToClient, true
		}
	case models.DispatchEnRouteToClient:
		if trig == TriggerDeliveryEntered {
			return models.DispatchArrivedToClient, true
		}
	case models.DispatchArrivedToClient:
		if trig == TriggerComplete || trig == TriggerManualAdvance {
			return models.DispatchCompleted, true
		}
	}
	return current, false
}

// Transition is the outcome of a successfully applied trigger
type Transition struct {
	From  models.DispatchStatus
	To    models.DispatchStatus
	Cause TriggerCause
	At    int64
}

// ApplyTrigger mutates the dispatch in memory for an applicable trigger and
// returns the transition. An inapplicable trigger (stale geofence signal,
// duplicate action, anything on a completed dispatch) returns
// ErrOutOfOrderTransition and leaves the dispatch untouched - the machine
// only moves forward from its current state, which guarantees monotonicity.
func ApplyTrigger(d *models.Dispatch, trig Trigger, cause TriggerCause, at int64) (Transition, error) {
	next, ok := NextStatus(d.Status, trig)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s on %s", ErrOutOfOrderTransition, trig, d.Status)
	}

	tr := Transition{From: d.Status, To: next, Cause: cause, At: at}
	d.Status = next
	d.SetTransitionTime(next, at)
	return tr, nil
}
