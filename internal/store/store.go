package store

import (
	"errors"

	"fleetpulse-backend/internal/models"
)

// ErrNotFound is returned when the requested row does not exist
var ErrNotFound = errors.New("store: not found")

// Store is the durable persistence contract the tracking core depends on.
// The production implementation is Postgres; tests use the in-memory one.
// Pings and tracking events are append-only.
type Store interface {
	// Append-only audit surfaces
	AppendPing(p *models.LocationPing) error
	AppendEvent(e *models.TrackingEvent) error
	ListDispatchEvents(dispatchID string) ([]models.TrackingEvent, error)
	ListShiftEvents(shiftID string) ([]models.TrackingEvent, error)

	// Per-driver runtime state, owned by the pipeline
	GetDriverState(driverID string) (*models.DriverRuntimeState, error)
	SaveDriverState(st *models.DriverRuntimeState) error
	DeleteDriverState(driverID string) error

	// Shifts and the per-shift mileage ledger
	CreateShift(s *models.Shift, m *models.ShiftMileage) error
	GetActiveShift(driverID string) (*models.Shift, error)
	GetShift(shiftID string) (*models.Shift, error)
	EndShift(shiftID string, endTime int64) error
	GetShiftMileage(shiftID string) (*models.ShiftMileage, error)
	SaveShiftMileage(m *models.ShiftMileage) error

	// Dispatches; status columns are owned by the state machine
	CreateDispatch(d *models.Dispatch) error
	GetDispatch(id string) (*models.Dispatch, error)
	GetActiveDispatchForDriver(driverID string) (*models.Dispatch, error)
	UpdateDispatchStatus(d *models.Dispatch) error

	// Static reference data
	ListRestrictedZones() ([]models.RestrictedZone, error)
}
