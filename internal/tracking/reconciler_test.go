package tracking

import (
	"testing"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestReconcile(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name         string
		in           ReconcileInputs
		wantMiles    float64
		wantSource   models.MileageSource
		wantStrategy string
		wantErr      error
	}{
		{
			name:         "manual override beats everything",
			in:           ReconcileInputs{GpsMiles: 42, GpsSamples: 100, ReportedMiles: f64(45), ManualOverride: f64(50)},
			wantMiles:    50,
			wantSource:   models.MileageSourceManual,
			wantStrategy: "manual-override",
		},
		{
			// 42 vs 45 deviates about 6.7%, inside the 15% tolerance
			name:         "agreement within tolerance keeps gps",
			in:           ReconcileInputs{GpsMiles: 42, GpsSamples: 100, ReportedMiles: f64(45), AvgAccuracyM: 12},
			wantMiles:    42,
			wantSource:   models.MileageSourceGPS,
			wantStrategy: "tolerance-check",
		},
		{
			name:         "disagreement with healthy gps keeps gps",
			in:           ReconcileInputs{GpsMiles: 30, GpsSamples: 100, ReportedMiles: f64(45), AvgAccuracyM: 10},
			wantMiles:    30,
			wantSource:   models.MileageSourceHybrid,
			wantStrategy: "hybrid-weight",
		},
		{
			name:         "disagreement with degraded gps trusts the odometer",
			in:           ReconcileInputs{GpsMiles: 30, GpsSamples: 100, ReportedMiles: f64(45), AvgAccuracyM: 40},
			wantMiles:    45,
			wantSource:   models.MileageSourceHybrid,
			wantStrategy: "hybrid-weight",
		},
		{
			name:         "gps only",
			in:           ReconcileInputs{GpsMiles: 12.5, GpsSamples: 40},
			wantMiles:    12.5,
			wantSource:   models.MileageSourceGPS,
			wantStrategy: "single-source",
		},
		{
			name:         "odometer only",
			in:           ReconcileInputs{ReportedMiles: f64(18.2)},
			wantMiles:    18.2,
			wantSource:   models.MileageSourceOdometer,
			wantStrategy: "single-source",
		},
		{
			name:         "zero accepted samples means no gps source",
			in:           ReconcileInputs{GpsMiles: 7, GpsSamples: 0, ReportedMiles: f64(18.2)},
			wantMiles:    18.2,
			wantSource:   models.MileageSourceOdometer,
			wantStrategy: "single-source",
		},
		{
			name:         "negative override clamps to zero",
			in:           ReconcileInputs{ManualOverride: f64(-5)},
			wantMiles:    0,
			wantSource:   models.MileageSourceManual,
			wantStrategy: "manual-override",
		},
		{
			name:    "no usable source is ambiguous",
			in:      ReconcileInputs{},
			wantErr: ErrReconciliationAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Reconcile(tt.in, cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMiles, out.TotalMiles, 1e-9)
			assert.Equal(t, tt.wantSource, out.Source)
			assert.Equal(t, tt.wantStrategy, out.Strategy)
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	cfg := config.Default()
	in := ReconcileInputs{GpsMiles: 42, GpsSamples: 100, ReportedMiles: f64(45), AvgAccuracyM: 12}

	first, err := Reconcile(in, cfg)
	require.NoError(t, err)
	second, err := Reconcile(in, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFinalizeShiftMileage(t *testing.T) {
	cfg := config.Default()

	t.Run("stamps the outcome once", func(t *testing.T) {
		m := &models.ShiftMileage{
			ShiftID:               "shift-1",
			GpsDistanceMiles:      42,
			GpsSampleCount:        100,
			AccuracySumMeters:     1200,
			ReportedDistanceMiles: f64(45),
		}

		require.NoError(t, FinalizeShiftMileage(m, cfg, 5000))
		require.NotNil(t, m.TotalDistanceMiles)
		assert.Equal(t, 42.0, *m.TotalDistanceMiles)
		require.NotNil(t, m.MileageSource)
		assert.Equal(t, models.MileageSourceGPS, *m.MileageSource)
		assert.True(t, m.Finalized)
		require.NotNil(t, m.FinalizedAt)
		assert.Equal(t, int64(5000), *m.FinalizedAt)

		// Re-finalizing must refuse and leave the row unchanged
		err := FinalizeShiftMileage(m, cfg, 9000)
		assert.ErrorIs(t, err, ErrMileageFinalized)
		assert.Equal(t, 42.0, *m.TotalDistanceMiles)
		assert.Equal(t, int64(5000), *m.FinalizedAt)
	})

	t.Run("ambiguous shift finalizes with total unset", func(t *testing.T) {
		m := &models.ShiftMileage{ShiftID: "shift-2"}

		err := FinalizeShiftMileage(m, cfg, 5000)
		assert.ErrorIs(t, err, ErrReconciliationAmbiguous)
		assert.True(t, m.Finalized)
		assert.Nil(t, m.TotalDistanceMiles, "zero would misreport a data gap as no driving")
		assert.Nil(t, m.MileageSource)
	})
}
