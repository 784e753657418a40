package models

// TrackingEventType classifies audit records written by the tracking core
type TrackingEventType string

const (
	EventPingAccepted       TrackingEventType = "ping_accepted"
	EventPingRejected       TrackingEventType = "ping_rejected"
	EventStatusChanged      TrackingEventType = "status_changed"
	EventTransitionRejected TrackingEventType = "transition_rejected"
	EventGeofenceEntered    TrackingEventType = "geofence_entered"
	EventGeofenceExited     TrackingEventType = "geofence_exited"
	EventRestrictedEntered  TrackingEventType = "restricted_zone_entered"
	EventShiftStarted       TrackingEventType = "shift_started"
	EventShiftEnded         TrackingEventType = "shift_ended"
	EventMileageFinalized   TrackingEventType = "mileage_finalized"
	EventPingsDiscarded     TrackingEventType = "pings_discarded"
	EventStoreDeadLetter    TrackingEventType = "store_dead_letter"
)

// TrackingEvent is the append-only audit record for every transition and
// every accept/reject decision. Written once, never updated or deleted here.
type TrackingEvent struct {
	ID         int64             `json:"id" db:"id"`
	DriverID   string            `json:"driver_id" db:"driver_id"`
	DispatchID *string           `json:"dispatch_id,omitempty" db:"dispatch_id"`
	ShiftID    *string           `json:"shift_id,omitempty" db:"shift_id"`
	EventType  TrackingEventType `json:"event_type" db:"event_type"`
	Cause      *string           `json:"cause,omitempty" db:"cause"`   // "geofence" or "manual" for status changes
	Detail     *string           `json:"detail,omitempty" db:"detail"` // Free-form context (reject reason, counts, etc.)
	CreatedAt  int64             `json:"created_at" db:"created_at"`
}
