package tracking

import (
	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
)

// Accumulator converts consecutive accepted pings into incremental travel
// distance. It tracks path length, not displacement: increments are never
// negative, and nothing previously accumulated is ever subtracted.
type Accumulator struct {
	cfg config.Tracking
}

func NewAccumulator(cfg config.Tracking) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Increment returns the distance in miles contributed by the newly accepted
// ping, given the driver's last accepted position. The first fix of a shift
// contributes nothing. While the device reports the driver as stationary the
// increment is still computed (small jitter is expected) but capped at a
// per-sample ceiling so phone-in-pocket jitter cannot pile up into real
// mileage while parked.
func (a *Accumulator) Increment(state *models.DriverRuntimeState, p *models.LocationPing) float64 {
	if !state.HasFix {
		return 0
	}

	miles := HaversineMiles(state.LastLatitude, state.LastLongitude, p.Latitude, p.Longitude)
	if miles < 0 {
		miles = 0
	}

	if !p.IsMoving || p.ActivityType == models.ActivityStationary {
		if miles > a.cfg.StationaryCapMiles {
			miles = a.cfg.StationaryCapMiles
		}
	}

	return miles
}

// Apply folds an increment into the runtime state and the shift ledger and
// advances the last accepted fix
func (a *Accumulator) Apply(state *models.DriverRuntimeState, m *models.ShiftMileage, p *models.LocationPing, miles float64) {
	state.CumulativeMiles += miles
	state.HasFix = true
	state.LastLatitude = p.Latitude
	state.LastLongitude = p.Longitude
	state.LastCapturedAt = p.CapturedAt

	m.GpsDistanceMiles += miles
	m.GpsSampleCount++
	m.AccuracySumMeters += p.Accuracy
}
