package models

// ActivityType is the motion classification reported by the mobile client
type ActivityType string

const (
	ActivityWalking    ActivityType = "walking"
	ActivityDriving    ActivityType = "driving"
	ActivityStationary ActivityType = "stationary"
	ActivityUnknown    ActivityType = "unknown"
)

// LocationPing is a single GPS sample from a driver's device.
// Every received sample is appended to the location_pings table, accepted or
// not - rejected samples keep the raw data for audit but never feed the
// distance accumulator.
type LocationPing struct {
	ID           int64        `json:"id" db:"id"`
	DriverID     string       `json:"driver_id" db:"driver_id"`
	ShiftID      *string      `json:"shift_id,omitempty" db:"shift_id"`
	Latitude     float64      `json:"latitude" db:"latitude"`
	Longitude    float64      `json:"longitude" db:"longitude"`
	Accuracy     float64      `json:"accuracy" db:"accuracy"`                     // Horizontal accuracy in meters
	Speed        *float64     `json:"speed,omitempty" db:"speed"`                 // Instantaneous speed in mph
	Heading      *float64     `json:"heading,omitempty" db:"heading"`             // Direction of travel (0-360 degrees)
	Altitude     *float64     `json:"altitude,omitempty" db:"altitude"`           // Meters above sea level
	BatteryLevel *float64     `json:"battery_level,omitempty" db:"battery_level"` // 0.0-1.0
	IsMoving     bool         `json:"is_moving" db:"is_moving"`
	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	Accepted     bool         `json:"accepted" db:"accepted"`
	RejectReason *string      `json:"reject_reason,omitempty" db:"reject_reason"`
	CapturedAt   int64        `json:"captured_at" db:"captured_at"` // Client-side timestamp
	CreatedAt    int64        `json:"created_at" db:"created_at"`   // Server-side timestamp
}

// DriverRuntimeState is the mutable per-driver state owned by the tracking
// pipeline. One row per on-duty driver; reset when a shift ends.
type DriverRuntimeState struct {
	DriverID        string  `json:"driver_id" db:"driver_id"`
	ShiftID         string  `json:"shift_id" db:"shift_id"`
	HasFix          bool    `json:"has_fix" db:"has_fix"`
	LastLatitude    float64 `json:"last_latitude" db:"last_latitude"`
	LastLongitude   float64 `json:"last_longitude" db:"last_longitude"`
	LastCapturedAt  int64   `json:"last_captured_at" db:"last_captured_at"`
	CumulativeMiles float64 `json:"cumulative_miles" db:"cumulative_miles"`
	DispatchID      *string `json:"dispatch_id,omitempty" db:"dispatch_id"`
	UpdatedAt       int64   `json:"updated_at" db:"updated_at"`
}
