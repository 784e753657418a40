package tracking

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/models"
	"fleetpulse-backend/internal/store"

	"github.com/google/uuid"
)

// Pipeline is the tracking core's entry point. It maintains one lane per
// on-duty driver: a goroutine plus a bounded mailbox that serializes every
// mutation for that driver (validation, accumulation, geofence evaluation,
// status transitions), while different drivers process fully in parallel
// with no shared mutable state. Broadcast is fire-and-forget relative to the
// store writes; a failed broadcast never rolls anything back.
type Pipeline struct {
	cfg    config.Tracking
	store  store.Store
	pub    Publisher
	filter *QualityFilter
	acc    *Accumulator

	mu    sync.Mutex
	lanes map[string]*lane
}

func NewPipeline(cfg config.Tracking, st store.Store, pub Publisher) *Pipeline {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		pub:    pub,
		filter: NewQualityFilter(cfg),
		acc:    NewAccumulator(cfg),
		lanes:  make(map[string]*lane),
	}
}

// lane mailbox messages
type pingMsg struct {
	ping *models.LocationPing
}

type advanceMsg struct {
	trig  Trigger
	cause TriggerCause
	reply chan advanceResult
}

type advanceResult struct {
	dispatch *models.Dispatch
	err      error
}

type assignMsg struct {
	dispatchID string
	reply      chan error
}

type reportMsg struct {
	reportedMiles  *float64
	manualOverride *float64
	reply          chan error
}

type drainMsg struct {
	reply chan endResult
}

type endResult struct {
	mileage *models.ShiftMileage
	err     error
}

// lane owns all mutable state for one driver. Only the lane goroutine
// touches these fields after spawn.
type lane struct {
	p        *Pipeline
	driverID string
	inbox    chan interface{}
	closed   bool // guarded by Pipeline.mu; no new submissions once set
	abort    bool // set by the lane itself when drain grace expires

	state    *models.DriverRuntimeState
	shift    *models.Shift
	mileage  *models.ShiftMileage
	dispatch *models.Dispatch
	pickup   models.Geofence
	delivery models.Geofence
	zones    []models.Geofence
	eval     *GeofenceEvaluator

	lastLocBroadcast time.Time
	discarded        int

	// drainDeadline holds a unix-nano timestamp once EndShift starts the
	// grace clock; pings still queued past it are discarded, not processed
	drainDeadline atomic.Int64
}

// StartShift opens a new shift for the driver and spins up their lane. An
// already-open shift is ended first, mirroring the mobile client's
// "slide to start" recovering from an unclean shutdown.
func (p *Pipeline) StartShift(driverID string) (*models.Shift, error) {
	if existing := p.getLane(driverID); existing != nil {
		log.Printf("⚠️  Driver %s starting a shift with one still open, auto-ending it", driverID)
		if _, err := p.EndShift(driverID); err != nil && !errors.Is(err, ErrReconciliationAmbiguous) {
			log.Printf("❌ Auto-end of previous shift failed for %s: %v", driverID, err)
		}
	} else if sh, err := p.store.GetActiveShift(driverID); err == nil && sh != nil {
		// Shift row left open by a restart; resume its lane just to close it
		if _, rerr := p.resumeLane(driverID); rerr == nil {
			if _, eerr := p.EndShift(driverID); eerr != nil && !errors.Is(eerr, ErrReconciliationAmbiguous) {
				log.Printf("❌ Auto-end of stale shift failed for %s: %v", driverID, eerr)
			}
		}
	}

	now := time.Now().Unix()
	shift := &models.Shift{
		ID:        uuid.New().String(),
		DriverID:  driverID,
		Status:    models.ShiftStatusActive,
		StartTime: now,
	}
	mileage := &models.ShiftMileage{ShiftID: shift.ID, DriverID: driverID}

	if err := p.store.CreateShift(shift, mileage); err != nil {
		return nil, fmt.Errorf("create shift: %w", err)
	}

	state := &models.DriverRuntimeState{DriverID: driverID, ShiftID: shift.ID}
	if err := p.store.SaveDriverState(state); err != nil {
		return nil, fmt.Errorf("save driver state: %w", err)
	}

	p.appendEventBestEffort(&models.TrackingEvent{
		DriverID:  driverID,
		ShiftID:   &shift.ID,
		EventType: models.EventShiftStarted,
	})

	ln := p.newLane(driverID, state, shift, mileage)
	p.mu.Lock()
	p.lanes[driverID] = ln
	p.mu.Unlock()
	go ln.run()

	log.Printf("🚚 Shift %s started for driver %s", shift.ID, driverID)
	return shift, nil
}

// SubmitPing routes one location sample to the driver's lane. Returns
// ErrLaneBusy when the mailbox is full (the caller sheds the sample) and
// ErrNoActiveShift when the driver has no open shift. Never blocks on store
// or broadcast work.
func (p *Pipeline) SubmitPing(ping *models.LocationPing) error {
	ln := p.getLane(ping.DriverID)
	if ln == nil {
		var err error
		ln, err = p.resumeLane(ping.DriverID)
		if err != nil {
			return err
		}
	}

	p.mu.Lock()
	if ln.closed {
		p.mu.Unlock()
		return ErrLaneClosed
	}
	select {
	case ln.inbox <- pingMsg{ping: ping}:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		return ErrLaneBusy
	}
}

// SubmitManualAdvance applies an explicit driver/operator action to the
// driver's active dispatch, serialized through the lane like every other
// mutation.
func (p *Pipeline) SubmitManualAdvance(driverID string, trig Trigger) (*models.Dispatch, error) {
	ln := p.getLane(driverID)
	if ln == nil {
		var err error
		ln, err = p.resumeLane(driverID)
		if err != nil {
			return nil, err
		}
	}

	reply := make(chan advanceResult, 1)
	p.mu.Lock()
	if ln.closed {
		p.mu.Unlock()
		return nil, ErrLaneClosed
	}
	select {
	case ln.inbox <- advanceMsg{trig: trig, cause: CauseManual, reply: reply}:
	default:
		p.mu.Unlock()
		return nil, ErrLaneBusy
	}
	p.mu.Unlock()

	res := <-reply
	return res.dispatch, res.err
}

// AssignDispatch tells an on-duty driver's lane about a newly created
// dispatch so geofences are derived immediately. A driver without a running
// lane picks the dispatch up when their lane next spawns.
func (p *Pipeline) AssignDispatch(driverID, dispatchID string) error {
	ln := p.getLane(driverID)
	if ln == nil {
		return nil
	}

	reply := make(chan error, 1)
	p.mu.Lock()
	if ln.closed {
		p.mu.Unlock()
		return ErrLaneClosed
	}
	select {
	case ln.inbox <- assignMsg{dispatchID: dispatchID, reply: reply}:
	default:
		p.mu.Unlock()
		return ErrLaneBusy
	}
	p.mu.Unlock()
	return <-reply
}

// ReportMileage records an odometer self-report or an explicit manual
// correction against the driver's active shift. Finalized shifts are
// immutable; reports for them are rejected upstream.
func (p *Pipeline) ReportMileage(driverID string, reported, manual *float64) error {
	ln := p.getLane(driverID)
	if ln == nil {
		var err error
		ln, err = p.resumeLane(driverID)
		if err != nil {
			return err
		}
	}

	reply := make(chan error, 1)
	p.mu.Lock()
	if ln.closed {
		p.mu.Unlock()
		return ErrLaneClosed
	}
	select {
	case ln.inbox <- reportMsg{reportedMiles: reported, manualOverride: manual, reply: reply}:
	default:
		p.mu.Unlock()
		return ErrLaneBusy
	}
	p.mu.Unlock()
	return <-reply
}

// EndShift closes the driver's shift: the lane stops accepting new pings,
// drains what is already queued within the configured grace period
// (discarding the remainder with an audit entry), then finalizes the shift
// mileage through the reconciler while still holding the lane - a
// late-arriving ping can never race the finalization.
func (p *Pipeline) EndShift(driverID string) (*models.ShiftMileage, error) {
	p.mu.Lock()
	ln, ok := p.lanes[driverID]
	if !ok || ln.closed {
		p.mu.Unlock()
		return nil, ErrNoActiveShift
	}
	ln.closed = true
	p.mu.Unlock()

	ln.drainDeadline.Store(time.Now().Add(p.cfg.ShiftDrainGrace).UnixNano())

	reply := make(chan endResult, 1)
	ln.inbox <- drainMsg{reply: reply}

	res := <-reply

	p.mu.Lock()
	delete(p.lanes, driverID)
	p.mu.Unlock()

	return res.mileage, res.err
}

// ActiveDrivers lists driver ids with a running lane
func (p *Pipeline) ActiveDrivers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.lanes))
	for id := range p.lanes {
		ids = append(ids, id)
	}
	return ids
}

// PreviewReconcile runs the reconciliation policy against a shift's current
// ledger without finalizing anything. Used for in-progress long shifts.
func (p *Pipeline) PreviewReconcile(shiftID string) (ReconcileOutcome, error) {
	m, err := p.store.GetShiftMileage(shiftID)
	if err != nil {
		return ReconcileOutcome{}, err
	}
	return Reconcile(ReconcileInputs{
		GpsMiles:       m.GpsDistanceMiles,
		GpsSamples:     m.GpsSampleCount,
		ReportedMiles:  m.ReportedDistanceMiles,
		ManualOverride: m.ManualOverrideMiles,
		AvgAccuracyM:   m.AverageAccuracyMeters(),
	}, p.cfg)
}

func (p *Pipeline) getLane(driverID string) *lane {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lanes[driverID]
}

// resumeLane rebuilds a lane from durable state, e.g. after a restart or for
// the first ping of an already-open shift
func (p *Pipeline) resumeLane(driverID string) (*lane, error) {
	shift, err := p.store.GetActiveShift(driverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoActiveShift
		}
		return nil, err
	}

	mileage, err := p.store.GetShiftMileage(shift.ID)
	if err != nil {
		return nil, err
	}

	state, err := p.store.GetDriverState(driverID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		state = &models.DriverRuntimeState{DriverID: driverID, ShiftID: shift.ID}
	}

	ln := p.newLane(driverID, state, shift, mileage)

	p.mu.Lock()
	if existing, ok := p.lanes[driverID]; ok {
		p.mu.Unlock()
		return existing, nil
	}
	p.lanes[driverID] = ln
	p.mu.Unlock()
	go ln.run()
	return ln, nil
}

func (p *Pipeline) newLane(driverID string, state *models.DriverRuntimeState, shift *models.Shift, mileage *models.ShiftMileage) *lane {
	ln := &lane{
		p:        p,
		driverID: driverID,
		inbox:    make(chan interface{}, p.cfg.LaneBufferSize),
		state:    state,
		shift:    shift,
		mileage:  mileage,
		eval:     NewGeofenceEvaluator(p.cfg),
	}

	if d, err := p.store.GetActiveDispatchForDriver(driverID); err == nil {
		ln.setDispatch(d)
	}

	if zones, err := p.store.ListRestrictedZones(); err == nil {
		for _, z := range zones {
			ln.zones = append(ln.zones, z.Fence())
		}
	} else {
		log.Printf("⚠️  Could not load restricted zones for driver %s: %v", driverID, err)
	}

	return ln
}

func (p *Pipeline) appendEventBestEffort(e *models.TrackingEvent) {
	if err := p.store.AppendEvent(e); err != nil {
		log.Printf("❌ Audit event write failed (%s, driver %s): %v", e.EventType, e.DriverID, err)
	}
}

// withRetry issues a durable write with bounded linear backoff. The returned
// error is the last attempt's.
func (p *Pipeline) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= p.cfg.StoreMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * p.cfg.StoreRetryBackoff)
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// run is the lane goroutine. A panic is contained to this driver's lane:
// logged, the lane removed, every other driver unaffected.
func (ln *lane) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 Lane for driver %s panicked: %v", ln.driverID, r)
			ln.p.mu.Lock()
			if ln.p.lanes[ln.driverID] == ln {
				delete(ln.p.lanes, ln.driverID)
			}
			ln.p.mu.Unlock()
		}
	}()

	for msg := range ln.inbox {
		switch m := msg.(type) {
		case pingMsg:
			if d := ln.drainDeadline.Load(); ln.abort || (d != 0 && time.Now().UnixNano() > d) {
				ln.abort = true
				ln.discarded++
				continue
			}
			ln.handlePing(m.ping)
		case advanceMsg:
			m.reply <- ln.handleAdvance(m.trig, m.cause)
		case assignMsg:
			m.reply <- ln.handleAssign(m.dispatchID)
		case reportMsg:
			m.reply <- ln.handleReport(m.reportedMiles, m.manualOverride)
		case drainMsg:
			m.reply <- ln.handleEnd()
			return
		}
	}
}

// handlePing is the per-sample critical section: validate, persist raw,
// accumulate, evaluate fences, advance status, broadcast.
func (ln *lane) handlePing(p *models.LocationPing) {
	pl := ln.p
	p.ShiftID = &ln.shift.ID

	reason, detail, ok := pl.filter.Check(ln.state, p)
	p.Accepted = ok
	if !ok {
		r := string(reason)
		p.RejectReason = &r
	}

	// Every ping, valid or not, lands in the append-only log
	if err := pl.withRetry(func() error { return pl.store.AppendPing(p) }); err != nil {
		ln.deadLetter("append_ping", err)
	}

	if !ok {
		d := fmt.Sprintf("%s: %s", reason, detail)
		ln.audit(models.EventPingRejected, nil, &d)
		log.Printf("🚫 Ping rejected for driver %s: %s (%s)", ln.driverID, reason, detail)
		return
	}

	miles := pl.acc.Increment(ln.state, p)
	pl.acc.Apply(ln.state, ln.mileage, p, miles)

	if err := pl.withRetry(func() error { return pl.store.SaveDriverState(ln.state) }); err != nil {
		ln.deadLetter("save_driver_state", err)
	}
	if err := pl.withRetry(func() error { return pl.store.SaveShiftMileage(ln.mileage) }); err != nil {
		ln.deadLetter("save_shift_mileage", err)
	}

	ln.audit(models.EventPingAccepted, nil, nil)

	ln.evaluateFences(p)
	ln.broadcastLocation(p)
}

// evaluateFences feeds the accepted position through the dispatch fences and
// the static restricted zones
func (ln *lane) evaluateFences(p *models.LocationPing) {
	if ln.dispatch != nil && !ln.dispatch.Status.IsTerminal() {
		for _, fence := range []models.Geofence{ln.pickup, ln.delivery} {
			signal := ln.eval.Observe(fence, p.Latitude, p.Longitude)
			if signal == "" {
				continue
			}
			ln.auditFenceCrossing(fence, signal)
			if trig, ok := signalTrigger(signal); ok {
				res := ln.handleAdvanceTrigger(trig, CauseGeofence)
				if res.err != nil && !errors.Is(res.err, ErrOutOfOrderTransition) {
					log.Printf("❌ Geofence transition failed for driver %s: %v", ln.driverID, res.err)
				}
			}
		}
	}

	for _, zone := range ln.zones {
		signal := ln.eval.Observe(zone, p.Latitude, p.Longitude)
		if signal == SignalRestrictedEnter {
			name := zone.Name
			ln.audit(models.EventRestrictedEntered, nil, &name)
			log.Printf("⚠️  Driver %s entered restricted zone %q", ln.driverID, zone.Name)
		}
	}
}

// signalTrigger maps confirmed fence crossings to state machine triggers.
// Delivery-fence exit carries no transition: completion is always an
// explicit action.
func signalTrigger(s FenceSignal) (Trigger, bool) {
	switch s {
	case SignalPickupEntered:
		return TriggerPickupEntered, true
	case SignalPickupExited:
		return TriggerPickupExited, true
	case SignalDeliveryEntered:
		return TriggerDeliveryEntered, true
	default:
		return "", false
	}
}

func (ln *lane) handleAdvance(trig Trigger, cause TriggerCause) advanceResult {
	return ln.handleAdvanceTrigger(trig, cause)
}

func (ln *lane) handleAdvanceTrigger(trig Trigger, cause TriggerCause) advanceResult {
	pl := ln.p

	if ln.dispatch == nil {
		// Lane may have been spawned before the dispatch existed
		if d, err := pl.store.GetActiveDispatchForDriver(ln.driverID); err == nil {
			ln.setDispatch(d)
		} else {
			return advanceResult{err: fmt.Errorf("%w: no active dispatch", ErrOutOfOrderTransition)}
		}
	}

	now := time.Now().Unix()
	tr, err := ApplyTrigger(ln.dispatch, trig, cause, now)
	if err != nil {
		c := string(cause)
		d := fmt.Sprintf("trigger %s on status %s", trig, ln.dispatch.Status)
		ln.audit(models.EventTransitionRejected, &c, &d)
		log.Printf("🚫 Out-of-order trigger %s for dispatch %s (status %s)", trig, ln.dispatch.ID, ln.dispatch.Status)
		return advanceResult{dispatch: ln.dispatch, err: err}
	}

	if serr := pl.withRetry(func() error { return pl.store.UpdateDispatchStatus(ln.dispatch) }); serr != nil {
		ln.deadLetter("update_dispatch_status", serr)
	}

	c := string(cause)
	d := fmt.Sprintf("%s -> %s", tr.From, tr.To)
	ln.audit(models.EventStatusChanged, &c, &d)
	log.Printf("✅ Dispatch %s: %s -> %s (%s)", ln.dispatch.ID, tr.From, tr.To, cause)

	ln.broadcastStatus(tr)

	if ln.dispatch.Status.IsTerminal() {
		completed := ln.dispatch
		ln.dispatch = nil
		ln.state.DispatchID = nil
		ln.eval.ResetFence(completed.ID + ":pickup")
		ln.eval.ResetFence(completed.ID + ":delivery")
		if err := pl.withRetry(func() error { return pl.store.SaveDriverState(ln.state) }); err != nil {
			ln.deadLetter("save_driver_state", err)
		}
		return advanceResult{dispatch: completed}
	}

	return advanceResult{dispatch: ln.dispatch}
}

func (ln *lane) handleAssign(dispatchID string) error {
	d, err := ln.p.store.GetDispatch(dispatchID)
	if err != nil {
		return err
	}
	ln.setDispatch(d)
	if err := ln.p.withRetry(func() error { return ln.p.store.SaveDriverState(ln.state) }); err != nil {
		ln.deadLetter("save_driver_state", err)
	}
	log.Printf("📦 Dispatch %s assigned to driver %s lane", d.ID, ln.driverID)
	return nil
}

func (ln *lane) setDispatch(d *models.Dispatch) {
	ln.dispatch = d
	ln.state.DispatchID = &d.ID
	ln.pickup, ln.delivery = DispatchFences(d, ln.p.cfg.GeofenceRadiusMeters)
	ln.eval.ResetFence(ln.pickup.ID)
	ln.eval.ResetFence(ln.delivery.ID)
}

func (ln *lane) handleReport(reported, manual *float64) error {
	if ln.mileage.Finalized {
		return ErrMileageFinalized
	}
	if reported != nil {
		ln.mileage.ReportedDistanceMiles = reported
	}
	if manual != nil {
		ln.mileage.ManualOverrideMiles = manual
	}
	return ln.p.withRetry(func() error { return ln.p.store.SaveShiftMileage(ln.mileage) })
}

// handleEnd closes out the shift after the mailbox has drained. Because the
// lane goroutine itself runs the reconciler, no ping for this driver can be
// accumulated concurrently with finalization.
func (ln *lane) handleEnd() endResult {
	pl := ln.p
	now := time.Now().Unix()

	if ln.discarded > 0 {
		d := fmt.Sprintf("discarded %d in-flight pings at shift end", ln.discarded)
		ln.audit(models.EventPingsDiscarded, nil, &d)
		log.Printf("⚠️  Driver %s: %s", ln.driverID, d)
	}

	if err := pl.withRetry(func() error { return pl.store.EndShift(ln.shift.ID, now) }); err != nil {
		ln.deadLetter("end_shift", err)
	}

	recErr := FinalizeShiftMileage(ln.mileage, pl.cfg, now)
	if recErr != nil && !errors.Is(recErr, ErrReconciliationAmbiguous) {
		return endResult{mileage: ln.mileage, err: recErr}
	}

	if err := pl.withRetry(func() error { return pl.store.SaveShiftMileage(ln.mileage) }); err != nil {
		ln.deadLetter("save_shift_mileage", err)
	}
	if err := pl.store.DeleteDriverState(ln.driverID); err != nil {
		log.Printf("⚠️  Could not clear runtime state for driver %s: %v", ln.driverID, err)
	}

	detail := "no usable mileage source"
	if ln.mileage.TotalDistanceMiles != nil {
		detail = fmt.Sprintf("total=%.2fmi source=%s", *ln.mileage.TotalDistanceMiles, *ln.mileage.MileageSource)
	}
	ln.audit(models.EventShiftEnded, nil, nil)
	ln.audit(models.EventMileageFinalized, nil, &detail)
	log.Printf("🏁 Shift %s ended for driver %s (%s)", ln.shift.ID, ln.driverID, detail)

	return endResult{mileage: ln.mileage, err: recErr}
}

// broadcastLocation publishes the accepted ping, rate-limited per driver so
// dashboard bandwidth stays bounded no matter how fast the device reports.
// Skipped pings still fed the accumulator above.
func (ln *lane) broadcastLocation(p *models.LocationPing) {
	minInterval := time.Duration(ln.p.cfg.BroadcastMinIntervalSeconds) * time.Second
	if !ln.lastLocBroadcast.IsZero() && time.Since(ln.lastLocBroadcast) < minInterval {
		return
	}
	ln.lastLocBroadcast = time.Now()

	u := Update{
		Type:      "location",
		DriverID:  ln.driverID,
		ShiftID:   &ln.shift.ID,
		Payload:   p,
		Timestamp: p.CapturedAt,
	}
	if ln.dispatch != nil {
		u.DispatchID = &ln.dispatch.ID
		ln.p.pub.Publish(TopicForDispatch(ln.dispatch.ID), u)
	}
	ln.p.pub.Publish(TopicForDriver(ln.driverID), u)
}

// broadcastStatus publishes every status transition, never rate-limited
func (ln *lane) broadcastStatus(tr Transition) {
	u := Update{
		Type:      "status",
		DriverID:  ln.driverID,
		ShiftID:   &ln.shift.ID,
		Payload:   map[string]interface{}{"from": tr.From, "to": tr.To, "cause": tr.Cause},
		Timestamp: tr.At,
	}
	if ln.dispatch != nil {
		u.DispatchID = &ln.dispatch.ID
		ln.p.pub.Publish(TopicForDispatch(ln.dispatch.ID), u)
	}
	ln.p.pub.Publish(TopicForDriver(ln.driverID), u)
}

func (ln *lane) audit(t models.TrackingEventType, cause, detail *string) {
	e := &models.TrackingEvent{
		DriverID:  ln.driverID,
		ShiftID:   &ln.shift.ID,
		EventType: t,
		Cause:     cause,
		Detail:    detail,
	}
	if ln.dispatch != nil {
		e.DispatchID = &ln.dispatch.ID
	}
	ln.p.appendEventBestEffort(e)
}

func (ln *lane) auditFenceCrossing(fence models.Geofence, signal FenceSignal) {
	t := models.EventGeofenceEntered
	switch signal {
	case SignalPickupExited, SignalDeliveryExited:
		t = models.EventGeofenceExited
	}
	name := fence.Name
	ln.audit(t, nil, &name)
}

// deadLetter records a durable write that exhausted its retries. The
// decision is preserved in the audit log instead of being silently dropped;
// ingestion for the driver continues.
func (ln *lane) deadLetter(op string, err error) {
	d := fmt.Sprintf("%s failed after %d retries: %v", op, ln.p.cfg.StoreMaxRetries, err)
	log.Printf("💀 Dead-letter for driver %s: %s", ln.driverID, d)
	ln.audit(models.EventStoreDeadLetter, nil, &d)
}
