package tracking

import (
	"math"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
)

// ReconcileInputs carries everything the policy needs to pick one
// authoritative mileage figure for a shift
type ReconcileInputs struct {
	GpsMiles       float64  // Accumulator output for the shift
	GpsSamples     int      // Accepted ping count; 0 means no GPS source
	ReportedMiles  *float64 // Driver/odometer self-report, if any
	ManualOverride *float64 // Explicit manual correction, if recorded
	AvgAccuracyM   float64  // Mean horizontal accuracy of accepted samples
}

// ReconcileOutcome is the selected figure plus its source tag
type ReconcileOutcome struct {
	TotalMiles float64
	Source     models.MileageSource
	Strategy   string
}

// strategy is one named rule in the priority-ordered policy. Each is a pure
// function returning nil when it does not apply, which keeps the policy
// testable and extensible without conditional sprawl.
type strategy struct {
	name  string
	apply func(in ReconcileInputs, cfg config.Tracking) *ReconcileOutcome
}

// Neither GPS drift (urban canyons, parking garages) nor manual/odometer
// reports (fat-fingered entries) are unconditionally trusted; the ordered
// strategies below arbitrate between them.
var strategies = []strategy{
	{
		// An explicit manual correction wins outright
		name: "manual-override",
		apply: func(in ReconcileInputs, cfg config.Tracking) *ReconcileOutcome {
			if in.ManualOverride == nil {
				return nil
			}
			return &ReconcileOutcome{TotalMiles: *in.ManualOverride, Source: models.MileageSourceManual}
		},
	},
	{
		// GPS and odometer agree within tolerance: keep GPS, the odometer
		// served as confirmation, not override
		name: "tolerance-check",
		apply: func(in ReconcileInputs, cfg config.Tracking) *ReconcileOutcome {
			if in.GpsSamples == 0 || in.ReportedMiles == nil {
				return nil
			}
			if relativeDeviation(in.GpsMiles, *in.ReportedMiles) > cfg.MileageToleranceRatio {
				return nil
			}
			return &ReconcileOutcome{TotalMiles: in.GpsMiles, Source: models.MileageSourceGPS}
		},
	},
	{
		// Sources disagree beyond tolerance: weight toward the odometer only
		// when the shift's GPS samples show degraded average accuracy,
		// otherwise keep GPS
		name: "hybrid-weight",
		apply: func(in ReconcileInputs, cfg config.Tracking) *ReconcileOutcome {
			if in.GpsSamples == 0 || in.ReportedMiles == nil {
				return nil
			}
			picked := in.GpsMiles
			if in.AvgAccuracyM > cfg.DegradedAccuracyMeters {
				picked = *in.ReportedMiles
			}
			return &ReconcileOutcome{TotalMiles: picked, Source: models.MileageSourceHybrid}
		},
	},
	{
		// Only one source present: use it
		name: "single-source",
		apply: func(in ReconcileInputs, cfg config.Tracking) *ReconcileOutcome {
			if in.GpsSamples > 0 {
				return &ReconcileOutcome{TotalMiles: in.GpsMiles, Source: models.MileageSourceGPS}
			}
			if in.ReportedMiles != nil {
				return &ReconcileOutcome{TotalMiles: *in.ReportedMiles, Source: models.MileageSourceOdometer}
			}
			return nil
		},
	},
}

// Reconcile evaluates the strategies in priority order. When no source is
// usable it returns ErrReconciliationAmbiguous: the total stays unset for
// manual follow-up instead of defaulting to zero. Pure function of its
// inputs, so re-running on unchanged inputs is idempotent.
func Reconcile(in ReconcileInputs, cfg config.Tracking) (ReconcileOutcome, error) {
	for _, s := range strategies {
		if out := s.apply(in, cfg); out != nil {
			out.Strategy = s.name
			if out.TotalMiles < 0 {
				out.TotalMiles = 0
			}
			return *out, nil
		}
	}
	return ReconcileOutcome{}, ErrReconciliationAmbiguous
}

// FinalizeShiftMileage runs the policy against a shift's mileage row and
// stamps the result. A row that is already finalized is returned unchanged:
// once written, the total is never silently overwritten.
func FinalizeShiftMileage(m *models.ShiftMileage, cfg config.Tracking, now int64) error {
	if m.Finalized {
		return ErrMileageFinalized
	}

	in := ReconcileInputs{
		GpsMiles:       m.GpsDistanceMiles,
		GpsSamples:     m.GpsSampleCount,
		ReportedMiles:  m.ReportedDistanceMiles,
		ManualOverride: m.ManualOverrideMiles,
		AvgAccuracyM:   m.AverageAccuracyMeters(),
	}

	out, err := Reconcile(in, cfg)
	if err != nil {
		// No usable source: mark finalized with the total left unset so the
		// shift surfaces for manual review
		m.Finalized = true
		m.FinalizedAt = &now
		return err
	}

	m.TotalDistanceMiles = &out.TotalMiles
	src := out.Source
	m.MileageSource = &src
	m.Finalized = true
	m.FinalizedAt = &now
	return nil
}

// relativeDeviation is |a-b| relative to the larger magnitude, 0 when both
// are zero
func relativeDeviation(a, b float64) float64 {
	den := math.Max(math.Abs(a), math.Abs(b))
	if den == 0 {
		return 0
	}
	return math.Abs(a-b) / den
}
