package tracking

import (
	"fmt"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
)

// RejectReason classifies why the quality filter refused a ping
type RejectReason string

const (
	RejectBadCoordinates RejectReason = "bad_coordinates"
	RejectAccuracy       RejectReason = "accuracy"
	RejectOutOfOrder     RejectReason = "out_of_order"
	RejectImpliedSpeed   RejectReason = "implied_speed"
)

// QualityFilter screens incoming pings before they are allowed to touch
// runtime state. Rejected pings are still persisted raw for audit; they just
// never move last-known position or feed the accumulator, so one bad sample
// cannot corrupt cumulative mileage.
type QualityFilter struct {
	cfg config.Tracking
}

func NewQualityFilter(cfg config.Tracking) *QualityFilter {
	return &QualityFilter{cfg: cfg}
}

// Check evaluates one candidate ping against the driver's last accepted
// state. A ping with no predecessor (shift start) is always accepted as the
// baseline. Returns the reject reason and a human-readable detail when the
// ping fails.
func (f *QualityFilter) Check(state *models.DriverRuntimeState, p *models.LocationPing) (RejectReason, string, bool) {
	if !ValidCoordinates(p.Latitude, p.Longitude) {
		return RejectBadCoordinates, fmt.Sprintf("lat=%v lng=%v", p.Latitude, p.Longitude), false
	}

	if p.Accuracy > f.cfg.MaxAccuracyMeters {
		return RejectAccuracy, fmt.Sprintf("accuracy %.1fm > %.1fm", p.Accuracy, f.cfg.MaxAccuracyMeters), false
	}

	// First fix of the shift: accept as baseline
	if !state.HasFix {
		return "", "", true
	}

	// Out-of-order or replayed sample. Equal timestamps count as replays.
	if p.CapturedAt <= state.LastCapturedAt {
		return RejectOutOfOrder, fmt.Sprintf("captured_at %d <= last accepted %d", p.CapturedAt, state.LastCapturedAt), false
	}

	// Teleport check: implied speed between this ping and the last accepted
	// one must stay physically plausible
	miles := HaversineMiles(state.LastLatitude, state.LastLongitude, p.Latitude, p.Longitude)
	hours := float64(p.CapturedAt-state.LastCapturedAt) / secondsPerHour
	impliedMph := miles / hours
	if impliedMph > f.cfg.MaxImpliedSpeedMph {
		return RejectImpliedSpeed, fmt.Sprintf("implied %.0f mph > %.0f mph", impliedMph, f.cfg.MaxImpliedSpeedMph), false
	}

	return "", "", true
}
