package store

import (
	"sync"
	"time"

	"fleetpulse-backend/internal/models"
)

// Memory is an in-process Store used by tests. It mirrors the Postgres
// implementation's semantics (append-only pings/events, upsert state) without
// a database.
type Memory struct {
	mu         sync.Mutex
	pingSeq    int64
	eventSeq   int64
	Pings      []models.LocationPing
	Events     []models.TrackingEvent
	states     map[string]models.DriverRuntimeState
	shifts     map[string]models.Shift
	mileage    map[string]models.ShiftMileage
	dispatches map[string]models.Dispatch
	Zones      []models.RestrictedZone

	// FailAppends, when positive, makes that many AppendPing calls fail.
	// Exercises the retry/dead-letter path.
	FailAppends int
	AppendErr   error
}

func NewMemory() *Memory {
	return &Memory{
		states:     make(map[string]models.DriverRuntimeState),
		shifts:     make(map[string]models.Shift),
		mileage:    make(map[string]models.ShiftMileage),
		dispatches: make(map[string]models.Dispatch),
	}
}

func (s *Memory) AppendPing(p *models.LocationPing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends > 0 {
		s.FailAppends--
		return s.AppendErr
	}
	s.pingSeq++
	p.ID = s.pingSeq
	p.CreatedAt = time.Now().Unix()
	s.Pings = append(s.Pings, *p)
	return nil
}

func (s *Memory) AppendEvent(e *models.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventSeq++
	e.ID = s.eventSeq
	e.CreatedAt = time.Now().Unix()
	s.Events = append(s.Events, *e)
	return nil
}

func (s *Memory) ListDispatchEvents(dispatchID string) ([]models.TrackingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TrackingEvent
	for _, e := range s.Events {
		if e.DispatchID != nil && *e.DispatchID == dispatchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Memory) ListShiftEvents(shiftID string) ([]models.TrackingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TrackingEvent
	for _, e := range s.Events {
		if e.ShiftID != nil && *e.ShiftID == shiftID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Memory) GetDriverState(driverID string) (*models.DriverRuntimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[driverID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := st
	return &cp, nil
}

func (s *Memory) SaveDriverState(st *models.DriverRuntimeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = time.Now().Unix()
	s.states[st.DriverID] = *st
	return nil
}

func (s *Memory) DeleteDriverState(driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, driverID)
	return nil
}

func (s *Memory) CreateShift(sh *models.Shift, m *models.ShiftMileage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().Unix()
	sh.CreatedAt = now
	sh.UpdatedAt = now
	m.UpdatedAt = now
	s.shifts[sh.ID] = *sh
	s.mileage[m.ShiftID] = *m
	return nil
}

func (s *Memory) GetActiveShift(driverID string) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shifts {
		if sh.DriverID == driverID && sh.Status == models.ShiftStatusActive {
			cp := sh
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) GetShift(shiftID string) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shifts[shiftID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := sh
	return &cp, nil
}

func (s *Memory) EndShift(shiftID string, endTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shifts[shiftID]
	if !ok {
		return ErrNotFound
	}
	sh.Status = models.ShiftStatusEnded
	sh.EndTime = &endTime
	sh.UpdatedAt = time.Now().Unix()
	s.shifts[shiftID] = sh
	return nil
}

func (s *Memory) GetShiftMileage(shiftID string) (*models.ShiftMileage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mileage[shiftID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := m
	return &cp, nil
}

func (s *Memory) SaveShiftMileage(m *models.ShiftMileage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.UpdatedAt = time.Now().Unix()
	s.mileage[m.ShiftID] = *m
	return nil
}

func (s *Memory) CreateDispatch(d *models.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().Unix()
	d.CreatedAt = now
	d.UpdatedAt = now
	s.dispatches[d.ID] = *d
	return nil
}

func (s *Memory) GetDispatch(id string) (*models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dispatches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (s *Memory) GetActiveDispatchForDriver(driverID string) (*models.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Dispatch
	for _, d := range s.dispatches {
		if d.DriverID != driverID || d.Status == models.DispatchCompleted {
			continue
		}
		if best == nil || d.AssignedAt < best.AssignedAt {
			cp := d
			best = &cp
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (s *Memory) UpdateDispatchStatus(d *models.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dispatches[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now().Unix()
	s.dispatches[d.ID] = *d
	return nil
}

func (s *Memory) ListRestrictedZones() ([]models.RestrictedZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RestrictedZone, len(s.Zones))
	copy(out, s.Zones)
	return out, nil
}
