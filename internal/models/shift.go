package models

import "time"

// ShiftStatus represents the current status of a shift
type ShiftStatus string

const (
	ShiftStatusActive ShiftStatus = "active" // Driver on duty, pings flowing
	ShiftStatusEnded  ShiftStatus = "ended"  // Shift closed, mileage finalized
)

// Shift represents a driver's work shift
type Shift struct {
	ID        string      `json:"id" db:"id"`
	DriverID  string      `json:"driver_id" db:"driver_id"`
	Status    ShiftStatus `json:"status" db:"status"`
	StartTime int64       `json:"start_time" db:"start_time"`
	EndTime   *int64      `json:"end_time" db:"end_time"`
	CreatedAt int64       `json:"created_at" db:"created_at"`
	UpdatedAt int64       `json:"updated_at" db:"updated_at"`
}

// Duration returns elapsed shift time, using now for a still-open shift
func (s *Shift) Duration() time.Duration {
	end := time.Now().Unix()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	secs := end - s.StartTime
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs) * time.Second
}

// MileageSource tags which data source produced the authoritative total
type MileageSource string

const (
	MileageSourceGPS      MileageSource = "gps"
	MileageSourceOdometer MileageSource = "odometer"
	MileageSourceManual   MileageSource = "manual"
	MileageSourceHybrid   MileageSource = "hybrid"
)

// ShiftMileage is the per-shift mileage ledger. The accumulator bumps
// GpsDistanceMiles and the accuracy stats during the shift; the reconciler
// fills TotalDistanceMiles and MileageSource at shift close. Once finalized
// the row is immutable. TotalDistanceMiles stays NULL when no usable source
// exists - zero would misrepresent "no driving" vs "no data".
type ShiftMileage struct {
	ShiftID               string         `json:"shift_id" db:"shift_id"`
	DriverID              string         `json:"driver_id" db:"driver_id"`
	GpsDistanceMiles      float64        `json:"gps_distance_miles" db:"gps_distance_miles"`
	ReportedDistanceMiles *float64       `json:"reported_distance_miles" db:"reported_distance_miles"`
	ManualOverrideMiles   *float64       `json:"manual_override_miles" db:"manual_override_miles"`
	TotalDistanceMiles    *float64       `json:"total_distance_miles" db:"total_distance_miles"`
	MileageSource         *MileageSource `json:"mileage_source" db:"mileage_source"`
	GpsSampleCount        int            `json:"gps_sample_count" db:"gps_sample_count"`
	AccuracySumMeters     float64        `json:"accuracy_sum_meters" db:"accuracy_sum_meters"`
	Finalized             bool           `json:"finalized" db:"finalized"`
	FinalizedAt           *int64         `json:"finalized_at" db:"finalized_at"`
	UpdatedAt             int64          `json:"updated_at" db:"updated_at"`
}

// AverageAccuracyMeters is the mean horizontal accuracy across accepted
// samples, or 0 when no samples were accepted.
func (m *ShiftMileage) AverageAccuracyMeters() float64 {
	if m.GpsSampleCount == 0 {
		return 0
	}
	return m.AccuracySumMeters / float64(m.GpsSampleCount)
}

// FCMToken represents a Firebase Cloud Messaging token for a user
type FCMToken struct {
	ID         int    `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	Token      string `json:"token" db:"token"`
	DeviceType string `json:"device_type" db:"device_type"` // "ios" or "android"
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}
