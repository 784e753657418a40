package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
	"fleetpulse-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig keeps the retry backoff tiny so failure-path tests stay fast
func testConfig() config.Tracking {
	cfg := config.Default()
	cfg.StoreRetryBackoff = time.Millisecond
	cfg.ShiftDrainGrace = 2 * time.Second
	return cfg
}

// capturePublisher records every update per topic
type capturePublisher struct {
	mu      sync.Mutex
	updates map[string][]Update
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{updates: make(map[string][]Update)}
}

func (c *capturePublisher) Publish(topic string, u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates[topic] = append(c.updates[topic], u)
}

func (c *capturePublisher) byType(topic, typ string) []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Update
	for _, u := range c.updates[topic] {
		if u.Type == typ {
			out = append(out, u)
		}
	}
	return out
}

func eventsOfType(st *store.Memory, typ models.TrackingEventType) []models.TrackingEvent {
	var out []models.TrackingEvent
	for _, e := range st.Events {
		if e.EventType == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestPipelineShiftLifecycle(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	shift, err := p.StartShift("driver-1")
	require.NoError(t, err)
	require.NotEmpty(t, shift.ID)
	assert.Contains(t, p.ActiveDrivers(), "driver-1")

	base := time.Now().Unix()
	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, base)))
	require.NoError(t, p.SubmitPing(testPing(37.007237, -122.0, 10, base+60)))

	mileage, err := p.EndShift("driver-1")
	require.NoError(t, err)
	require.NotNil(t, mileage.TotalDistanceMiles)
	assert.InDelta(t, 0.5, *mileage.TotalDistanceMiles, 0.005)
	require.NotNil(t, mileage.MileageSource)
	assert.Equal(t, models.MileageSourceGPS, *mileage.MileageSource)
	assert.True(t, mileage.Finalized)
	assert.Equal(t, 2, mileage.GpsSampleCount)

	// Shift row closed, runtime state gone, lane removed
	closed, err := st.GetShift(shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusEnded, closed.Status)
	require.NotNil(t, closed.EndTime)

	_, err = st.GetDriverState("driver-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, p.ActiveDrivers())

	assert.Len(t, eventsOfType(st, models.EventShiftStarted), 1)
	assert.Len(t, eventsOfType(st, models.EventShiftEnded), 1)
	assert.Len(t, eventsOfType(st, models.EventMileageFinalized), 1)
	assert.Len(t, eventsOfType(st, models.EventPingAccepted), 2)

	// Everything for the driver is gone; a second end is a no-op error
	_, err = p.EndShift("driver-1")
	assert.ErrorIs(t, err, ErrNoActiveShift)
	assert.ErrorIs(t, p.SubmitPing(testPing(37.0, -122.0, 10, base+120)), ErrNoActiveShift)
}

func TestPipelineRejectedPingDoesNotCorruptMileage(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	base := time.Now().Unix()
	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, base)))
	require.NoError(t, p.SubmitPing(testPing(37.007237, -122.0, 10, base+60)))
	// 49 miles one second later: a physically impossible jump
	require.NoError(t, p.SubmitPing(testPing(37.72, -122.0, 10, base+61)))

	mileage, err := p.EndShift("driver-1")
	require.NoError(t, err)
	require.NotNil(t, mileage.TotalDistanceMiles)
	assert.InDelta(t, 0.5, *mileage.TotalDistanceMiles, 0.005, "rejected sample must not move the total")
	assert.Equal(t, 2, mileage.GpsSampleCount)

	// The bad sample is still in the raw log, flagged
	require.Len(t, st.Pings, 3)
	bad := st.Pings[2]
	assert.False(t, bad.Accepted)
	require.NotNil(t, bad.RejectReason)
	assert.Equal(t, string(RejectImpliedSpeed), *bad.RejectReason)

	rejected := eventsOfType(st, models.EventPingRejected)
	require.Len(t, rejected, 1)
	assert.Contains(t, *rejected[0].Detail, "implied_speed")
}

func TestPipelineDispatchLifecycle(t *testing.T) {
	st := store.NewMemory()
	pub := newCapturePublisher()
	cfg := testConfig()
	cfg.BroadcastMinIntervalSeconds = 0
	p := NewPipeline(cfg, st, pub)

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	d := &models.Dispatch{
		ID:                "disp-1",
		DriverID:          "driver-1",
		PickupLatitude:    37.0,
		PickupLongitude:   -122.0,
		DeliveryLatitude:  37.004,
		DeliveryLongitude: -122.0,
		Status:            models.DispatchAssigned,
		AssignedAt:        time.Now().Unix(),
	}
	require.NoError(t, st.CreateDispatch(d))
	require.NoError(t, p.AssignDispatch("driver-1", "disp-1"))

	// Drive: approach, sit at the vendor, leave, arrive at the client.
	// Two confirming samples per fence crossing.
	base := time.Now().Unix()
	path := []struct {
		lat float64
		at  int64
	}{
		{37.010, base},       // baseline, outside both fences
		{37.000, base + 60},  // inside pickup
		{37.000, base + 120}, // confirmed: arrived_at_vendor
		{37.002, base + 180}, // outside pickup
		{37.002, base + 240}, // confirmed: en_route_to_client
		{37.004, base + 300}, // inside delivery
		{37.004, base + 360}, // confirmed: arrived_to_client
	}
	for _, step := range path {
		require.NoError(t, p.SubmitPing(testPing(step.lat, -122.0, 10, step.at)))
	}

	// Handoff is always an explicit action
	done, err := p.SubmitManualAdvance("driver-1", TriggerComplete)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchCompleted, done.Status)

	stored, err := st.GetDispatch("disp-1")
	require.NoError(t, err)
	assert.Equal(t, models.DispatchCompleted, stored.Status)
	assert.NotNil(t, stored.ArrivedAtVendorAt)
	assert.NotNil(t, stored.EnRouteAt)
	assert.NotNil(t, stored.ArrivedToClientAt)
	assert.NotNil(t, stored.CompletedAt)

	// Three geofence transitions plus the manual completion
	changes := eventsOfType(st, models.EventStatusChanged)
	require.Len(t, changes, 4)
	assert.Equal(t, "geofence", *changes[0].Cause)
	assert.Equal(t, "geofence", *changes[1].Cause)
	assert.Equal(t, "geofence", *changes[2].Cause)
	assert.Equal(t, "manual", *changes[3].Cause)

	assert.Len(t, eventsOfType(st, models.EventGeofenceEntered), 2)
	assert.Len(t, eventsOfType(st, models.EventGeofenceExited), 1)

	// Watchers of the dispatch topic saw every transition
	statusUpdates := pub.byType(TopicForDispatch("disp-1"), "status")
	assert.Len(t, statusUpdates, 4)
	locUpdates := pub.byType(TopicForDriver("driver-1"), "location")
	assert.Len(t, locUpdates, 7)

	_, err = p.EndShift("driver-1")
	require.NoError(t, err)
}

func TestPipelineOutOfOrderAdvance(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	d := &models.Dispatch{
		ID:         "disp-1",
		DriverID:   "driver-1",
		Status:     models.DispatchAssigned,
		AssignedAt: time.Now().Unix(),
	}
	require.NoError(t, st.CreateDispatch(d))

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	// A stale "left the vendor" before ever arriving
	_, err = p.SubmitManualAdvance("driver-1", TriggerPickupExited)
	assert.ErrorIs(t, err, ErrOutOfOrderTransition)

	stored, err := st.GetDispatch("disp-1")
	require.NoError(t, err)
	assert.Equal(t, models.DispatchAssigned, stored.Status, "rejected trigger must not move the status")

	rejected := eventsOfType(st, models.EventTransitionRejected)
	require.Len(t, rejected, 1)
	assert.Contains(t, *rejected[0].Detail, string(TriggerPickupExited))

	// The legitimate next step still works afterwards
	adv, err := p.SubmitManualAdvance("driver-1", TriggerManualAdvance)
	require.NoError(t, err)
	assert.Equal(t, models.DispatchArrivedAtVendor, adv.Status)
}

func TestPipelineManualOverrideWinsReconciliation(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	shift, err := p.StartShift("driver-1")
	require.NoError(t, err)

	base := time.Now().Unix()
	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, base)))
	require.NoError(t, p.SubmitPing(testPing(37.007237, -122.0, 10, base+60)))
	require.NoError(t, p.ReportMileage("driver-1", f64(12.0), f64(50.0)))

	// Preview arbitrates without finalizing
	preview, err := p.PreviewReconcile(shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MileageSourceManual, preview.Source)
	m, err := st.GetShiftMileage(shift.ID)
	require.NoError(t, err)
	assert.False(t, m.Finalized)

	mileage, err := p.EndShift("driver-1")
	require.NoError(t, err)
	require.NotNil(t, mileage.TotalDistanceMiles)
	assert.Equal(t, 50.0, *mileage.TotalDistanceMiles)
	assert.Equal(t, models.MileageSourceManual, *mileage.MileageSource)

	// Finalized shifts refuse late reports
	assert.ErrorIs(t, p.ReportMileage("driver-1", f64(13.0), nil), ErrNoActiveShift)
}

func TestPipelineShiftWithoutSourcesIsAmbiguous(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	mileage, err := p.EndShift("driver-1")
	assert.ErrorIs(t, err, ErrReconciliationAmbiguous)
	assert.True(t, mileage.Finalized)
	assert.Nil(t, mileage.TotalDistanceMiles)
}

func TestPipelineRestrictedZoneAuditsOnly(t *testing.T) {
	st := store.NewMemory()
	st.Zones = []models.RestrictedZone{{
		ID:              "zone-1",
		Name:            "disputed dock",
		CenterLatitude:  37.0,
		CenterLongitude: -122.0,
		RadiusMeters:    100,
		Status:          "active",
	}}
	p := NewPipeline(testConfig(), st, nil)

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	base := time.Now().Unix()
	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, base)))
	require.NoError(t, p.SubmitPing(testPing(37.0001, -122.0, 10, base+60)))

	_, err = p.EndShift("driver-1")
	require.NoError(t, err)

	entered := eventsOfType(st, models.EventRestrictedEntered)
	require.Len(t, entered, 1)
	assert.Equal(t, "disputed dock", *entered[0].Detail)
	assert.Empty(t, eventsOfType(st, models.EventStatusChanged))
}

func TestPipelineStoreFailureDeadLetters(t *testing.T) {
	st := store.NewMemory()
	st.AppendErr = errors.New("disk full")
	st.FailAppends = 4 // one more than the retry budget
	p := NewPipeline(testConfig(), st, nil)

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, time.Now().Unix())))

	_, err = p.EndShift("driver-1")
	require.NoError(t, err)

	dead := eventsOfType(st, models.EventStoreDeadLetter)
	require.Len(t, dead, 1)
	assert.Contains(t, *dead[0].Detail, "append_ping")
	assert.Contains(t, *dead[0].Detail, "disk full")
}

func TestPipelineResumesAfterRestart(t *testing.T) {
	st := store.NewMemory()

	first := NewPipeline(testConfig(), st, nil)
	shift, err := first.StartShift("driver-1")
	require.NoError(t, err)

	// A fresh pipeline over the same store stands in for a restarted server
	second := NewPipeline(testConfig(), st, nil)
	assert.Empty(t, second.ActiveDrivers())

	base := time.Now().Unix()
	require.NoError(t, second.SubmitPing(testPing(37.0, -122.0, 10, base)))
	require.NoError(t, second.SubmitPing(testPing(37.007237, -122.0, 10, base+60)))
	assert.Contains(t, second.ActiveDrivers(), "driver-1")

	mileage, err := second.EndShift("driver-1")
	require.NoError(t, err)
	assert.Equal(t, shift.ID, mileage.ShiftID)
	require.NotNil(t, mileage.TotalDistanceMiles)
	assert.InDelta(t, 0.5, *mileage.TotalDistanceMiles, 0.005)
}

func TestPipelineLocationBroadcastRateLimit(t *testing.T) {
	st := store.NewMemory()
	pub := newCapturePublisher()
	p := NewPipeline(testConfig(), st, pub) // 3s broadcast floor

	_, err := p.StartShift("driver-1")
	require.NoError(t, err)

	base := time.Now().Unix()
	require.NoError(t, p.SubmitPing(testPing(37.000, -122.0, 10, base)))
	require.NoError(t, p.SubmitPing(testPing(37.001, -122.0, 10, base+60)))
	require.NoError(t, p.SubmitPing(testPing(37.002, -122.0, 10, base+120)))

	mileage, err := p.EndShift("driver-1")
	require.NoError(t, err)

	// All three samples fed the accumulator; only the first went out within
	// the broadcast window
	assert.Equal(t, 3, mileage.GpsSampleCount)
	locUpdates := pub.byType(TopicForDriver("driver-1"), "location")
	assert.Len(t, locUpdates, 1)
}

func TestPipelineNoActiveShiftErrors(t *testing.T) {
	p := NewPipeline(testConfig(), store.NewMemory(), nil)

	assert.ErrorIs(t, p.SubmitPing(testPing(37.0, -122.0, 10, 1000)), ErrNoActiveShift)
	assert.ErrorIs(t, p.ReportMileage("ghost", f64(10), nil), ErrNoActiveShift)
	_, err := p.SubmitManualAdvance("ghost", TriggerManualAdvance)
	assert.ErrorIs(t, err, ErrNoActiveShift)
	_, err = p.EndShift("ghost")
	assert.ErrorIs(t, err, ErrNoActiveShift)
}

func TestPipelineStartShiftReplacesOpenShift(t *testing.T) {
	st := store.NewMemory()
	p := NewPipeline(testConfig(), st, nil)

	first, err := p.StartShift("driver-1")
	require.NoError(t, err)
	require.NoError(t, p.SubmitPing(testPing(37.0, -122.0, 10, time.Now().Unix())))

	second, err := p.StartShift("driver-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// The first shift was closed and finalized on the way
	old, err := st.GetShift(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusEnded, old.Status)
	oldMileage, err := st.GetShiftMileage(first.ID)
	require.NoError(t, err)
	assert.True(t, oldMileage.Finalized)

	active, err := st.GetActiveShift("driver-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}
