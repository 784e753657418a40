package models

import "time"

// GeofenceKind distinguishes dispatch-derived fences from static zones
type GeofenceKind string

const (
	GeofencePickup     GeofenceKind = "pickup"
	GeofenceDelivery   GeofenceKind = "delivery"
	GeofenceRestricted GeofenceKind = "restricted"
)

// Geofence is a circular region used to detect arrival/departure without
// explicit driver action. Pickup/delivery fences are derived from a
// dispatch's coordinates at assignment time; restricted fences are static
// reference data. Read-only to the tracking core.
type Geofence struct {
	ID              string       `json:"id"`
	Kind            GeofenceKind `json:"kind"`
	Name            string       `json:"name"`
	CenterLatitude  float64      `json:"center_latitude"`
	CenterLongitude float64      `json:"center_longitude"`
	RadiusMeters    float64      `json:"radius_meters"`
	DispatchID      *string      `json:"dispatch_id,omitempty"`
}

// RestrictedZone is a static named region drivers should not linger in
// (loading docks under dispute, closed garages, etc.). Entering one only
// produces an audit event; it never advances dispatch status.
type RestrictedZone struct {
	ID              string  `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	CenterLatitude  float64 `json:"center_latitude" db:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude" db:"center_longitude"`
	RadiusMeters    int     `json:"radius_meters" db:"radius_meters"`
	Status          string  `json:"status" db:"status"` // active, monitoring, resolved
	CreatedByUserID *string `json:"created_by_user_id" db:"created_by_user_id"`
	CreatedAt       int64   `json:"created_at" db:"created_at"`
	UpdatedAt       int64   `json:"updated_at" db:"updated_at"`
}

// Fence converts the zone row into an evaluator-ready geofence
func (z *RestrictedZone) Fence() Geofence {
	return Geofence{
		ID:              z.ID,
		Kind:            GeofenceRestricted,
		Name:            z.Name,
		CenterLatitude:  z.CenterLatitude,
		CenterLongitude: z.CenterLongitude,
		RadiusMeters:    float64(z.RadiusMeters),
	}
}

// RestrictedZoneResponse is the API shape with ISO timestamps
type RestrictedZoneResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    int     `json:"radius_meters"`
	Status          string  `json:"status"`
	CreatedAtIso    string  `json:"created_at_iso"`
	UpdatedAtIso    string  `json:"updated_at_iso"`
}

func (z *RestrictedZone) ToResponse() RestrictedZoneResponse {
	return RestrictedZoneResponse{
		ID:              z.ID,
		Name:            z.Name,
		CenterLatitude:  z.CenterLatitude,
		CenterLongitude: z.CenterLongitude,
		RadiusMeters:    z.RadiusMeters,
		Status:          z.Status,
		CreatedAtIso:    time.Unix(z.CreatedAt, 0).Format(time.RFC3339),
		UpdatedAtIso:    time.Unix(z.UpdatedAt, 0).Format(time.RFC3339),
	}
}
