package tracking

import (
	"testing"

	"fleetpulse-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name   string
		status models.DispatchStatus
		trig   Trigger
		want   models.DispatchStatus
		wantOK bool
	}{
		{"pickup entry from assigned", models.DispatchAssigned, TriggerPickupEntered, models.DispatchArrivedAtVendor, true},
		{"manual advance from assigned", models.DispatchAssigned, TriggerManualAdvance, models.DispatchArrivedAtVendor, true},
		{"pickup exit from assigned rejected", models.DispatchAssigned, TriggerPickupExited, models.DispatchAssigned, false},
		{"delivery entry from assigned rejected", models.DispatchAssigned, TriggerDeliveryEntered, models.DispatchAssigned, false},
		{"pickup exit from vendor", models.DispatchArrivedAtVendor, TriggerPickupExited, models.DispatchEnRouteToClient, true},
		{"manual advance from vendor", models.DispatchArrivedAtVendor, TriggerManualAdvance, models.DispatchEnRouteToClient, true},
		{"duplicate pickup entry rejected", models.DispatchArrivedAtVendor, TriggerPickupEntered, models.DispatchArrivedAtVendor, false},
		{"delivery entry from en route", models.DispatchEnRouteToClient, TriggerDeliveryEntered, models.DispatchArrivedToClient, true},
		{"manual advance from en route rejected", models.DispatchEnRouteToClient, TriggerManualAdvance, models.DispatchEnRouteToClient, false},
		{"complete from arrived", models.DispatchArrivedToClient, TriggerComplete, models.DispatchCompleted, true},
		{"manual advance from arrived", models.DispatchArrivedToClient, TriggerManualAdvance, models.DispatchCompleted, true},
		{"stale pickup exit on arrived rejected", models.DispatchArrivedToClient, TriggerPickupExited, models.DispatchArrivedToClient, false},
		{"delivery entry does not complete", models.DispatchArrivedToClient, TriggerDeliveryEntered, models.DispatchArrivedToClient, false},
		{"completed absorbs triggers", models.DispatchCompleted, TriggerManualAdvance, models.DispatchCompleted, false},
		{"completed absorbs complete", models.DispatchCompleted, TriggerComplete, models.DispatchCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStatus(tt.status, tt.trig)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, next)
		})
	}
}

// Every applicable transition moves the status strictly forward in the
// lifecycle ordering.
func TestNextStatusMonotonic(t *testing.T) {
	statuses := []models.DispatchStatus{
		models.DispatchAssigned,
		models.DispatchArrivedAtVendor,
		models.DispatchEnRouteToClient,
		models.DispatchArrivedToClient,
		models.DispatchCompleted,
	}
	triggers := []Trigger{
		TriggerPickupEntered,
		TriggerPickupExited,
		TriggerDeliveryEntered,
		TriggerManualAdvance,
		TriggerComplete,
	}

	for _, s := range statuses {
		for _, trig := range triggers {
			next, ok := NextStatus(s, trig)
			if ok {
				assert.Equal(t, s.Rank()+1, next.Rank(),
					"%s + %s should advance exactly one step", s, trig)
			} else {
				assert.Equal(t, s, next)
			}
		}
	}
}

func TestApplyTrigger(t *testing.T) {
	t.Run("full lifecycle", func(t *testing.T) {
		d := &models.Dispatch{ID: "disp-1", Status: models.DispatchAssigned}

		tr, err := ApplyTrigger(d, TriggerPickupEntered, CauseGeofence, 100)
		require.NoError(t, err)
		assert.Equal(t, models.DispatchAssigned, tr.From)
		assert.Equal(t, models.DispatchArrivedAtVendor, tr.To)
		assert.Equal(t, CauseGeofence, tr.Cause)
		require.NotNil(t, d.ArrivedAtVendorAt)
		assert.Equal(t, int64(100), *d.ArrivedAtVendorAt)

		_, err = ApplyTrigger(d, TriggerPickupExited, CauseGeofence, 200)
		require.NoError(t, err)
		_, err = ApplyTrigger(d, TriggerDeliveryEntered, CauseGeofence, 300)
		require.NoError(t, err)

		tr, err = ApplyTrigger(d, TriggerComplete, CauseManual, 400)
		require.NoError(t, err)
		assert.Equal(t, models.DispatchCompleted, tr.To)
		assert.True(t, d.Status.IsTerminal())
		require.NotNil(t, d.CompletedAt)
		assert.Equal(t, int64(400), *d.CompletedAt)
	})

	t.Run("stale trigger leaves the dispatch untouched", func(t *testing.T) {
		at := int64(300)
		d := &models.Dispatch{ID: "disp-1", Status: models.DispatchArrivedToClient, ArrivedToClientAt: &at}

		_, err := ApplyTrigger(d, TriggerPickupExited, CauseGeofence, 999)
		assert.ErrorIs(t, err, ErrOutOfOrderTransition)
		assert.Equal(t, models.DispatchArrivedToClient, d.Status)
		assert.Nil(t, d.CompletedAt)
	})

	t.Run("completed dispatch rejects everything", func(t *testing.T) {
		d := &models.Dispatch{ID: "disp-1", Status: models.DispatchCompleted}

		for _, trig := range []Trigger{TriggerPickupEntered, TriggerManualAdvance, TriggerComplete} {
			_, err := ApplyTrigger(d, trig, CauseManual, 999)
			assert.ErrorIs(t, err, ErrOutOfOrderTransition)
			assert.Equal(t, models.DispatchCompleted, d.Status)
		}
	})
}
