package store

import (
	"database/sql"
	"time"

	"fleetpulse-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// Postgres is the production Store backed by the shared sqlx pool
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an already-connected pool
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) AppendPing(p *models.LocationPing) error {
	query := `
		INSERT INTO location_pings (
			driver_id, shift_id, latitude, longitude, accuracy, speed, heading,
			altitude, battery_level, is_moving, activity_type, accepted,
			reject_reason, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	return s.db.QueryRow(
		query,
		p.DriverID, p.ShiftID, p.Latitude, p.Longitude, p.Accuracy, p.Speed,
		p.Heading, p.Altitude, p.BatteryLevel, p.IsMoving, p.ActivityType,
		p.Accepted, p.RejectReason, p.CapturedAt,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *Postgres) AppendEvent(e *models.TrackingEvent) error {
	query := `
		INSERT INTO tracking_events (driver_id, dispatch_id, shift_id, event_type, cause, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return s.db.QueryRow(
		query,
		e.DriverID, e.DispatchID, e.ShiftID, e.EventType, e.Cause, e.Detail,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *Postgres) ListDispatchEvents(dispatchID string) ([]models.TrackingEvent, error) {
	events := []models.TrackingEvent{}
	err := s.db.Select(&events,
		`SELECT * FROM tracking_events WHERE dispatch_id = $1 ORDER BY id ASC`, dispatchID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Postgres) ListShiftEvents(shiftID string) ([]models.TrackingEvent, error) {
	events := []models.TrackingEvent{}
	err := s.db.Select(&events,
		`SELECT * FROM tracking_events WHERE shift_id = $1 ORDER BY id ASC`, shiftID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Postgres) GetDriverState(driverID string) (*models.DriverRuntimeState, error) {
	var st models.DriverRuntimeState
	err := s.db.Get(&st, `SELECT * FROM driver_runtime_state WHERE driver_id = $1`, driverID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Postgres) SaveDriverState(st *models.DriverRuntimeState) error {
	st.UpdatedAt = time.Now().Unix()
	query := `
		INSERT INTO driver_runtime_state (
			driver_id, shift_id, has_fix, last_latitude, last_longitude,
			last_captured_at, cumulative_miles, dispatch_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (driver_id)
		DO UPDATE SET
			shift_id = EXCLUDED.shift_id,
			has_fix = EXCLUDED.has_fix,
			last_latitude = EXCLUDED.last_latitude,
			last_longitude = EXCLUDED.last_longitude,
			last_captured_at = EXCLUDED.last_captured_at,
			cumulative_miles = EXCLUDED.cumulative_miles,
			dispatch_id = EXCLUDED.dispatch_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.Exec(
		query,
		st.DriverID, st.ShiftID, st.HasFix, st.LastLatitude, st.LastLongitude,
		st.LastCapturedAt, st.CumulativeMiles, st.DispatchID, st.UpdatedAt,
	)
	return err
}

func (s *Postgres) DeleteDriverState(driverID string) error {
	_, err := s.db.Exec(`DELETE FROM driver_runtime_state WHERE driver_id = $1`, driverID)
	return err
}

func (s *Postgres) CreateShift(sh *models.Shift, m *models.ShiftMileage) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.Exec(
		`INSERT INTO shifts (id, driver_id, status, start_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		sh.ID, sh.DriverID, sh.Status, sh.StartTime, now,
	)
	if err != nil {
		return err
	}
	sh.CreatedAt = now
	sh.UpdatedAt = now

	_, err = tx.Exec(
		`INSERT INTO shift_mileage (shift_id, driver_id, updated_at) VALUES ($1, $2, $3)`,
		m.ShiftID, m.DriverID, now,
	)
	if err != nil {
		return err
	}
	m.UpdatedAt = now

	return tx.Commit()
}

func (s *Postgres) GetActiveShift(driverID string) (*models.Shift, error) {
	var sh models.Shift
	query := `SELECT * FROM shifts
			  WHERE driver_id = $1 AND status = 'active'
			  ORDER BY created_at DESC
			  LIMIT 1`
	err := s.db.Get(&sh, query, driverID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Postgres) GetShift(shiftID string) (*models.Shift, error) {
	var sh models.Shift
	err := s.db.Get(&sh, `SELECT * FROM shifts WHERE id = $1`, shiftID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Postgres) EndShift(shiftID string, endTime int64) error {
	_, err := s.db.Exec(
		`UPDATE shifts SET status = 'ended', end_time = $1, updated_at = $2 WHERE id = $3`,
		endTime, time.Now().Unix(), shiftID,
	)
	return err
}

func (s *Postgres) GetShiftMileage(shiftID string) (*models.ShiftMileage, error) {
	var m models.ShiftMileage
	err := s.db.Get(&m, `SELECT * FROM shift_mileage WHERE shift_id = $1`, shiftID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Postgres) SaveShiftMileage(m *models.ShiftMileage) error {
	m.UpdatedAt = time.Now().Unix()
	query := `
		UPDATE shift_mileage SET
			gps_distance_miles = $1,
			reported_distance_miles = $2,
			manual_override_miles = $3,
			total_distance_miles = $4,
			mileage_source = $5,
			gps_sample_count = $6,
			accuracy_sum_meters = $7,
			finalized = $8,
			finalized_at = $9,
			updated_at = $10
		WHERE shift_id = $11
	`
	_, err := s.db.Exec(
		query,
		m.GpsDistanceMiles, m.ReportedDistanceMiles, m.ManualOverrideMiles,
		m.TotalDistanceMiles, m.MileageSource, m.GpsSampleCount,
		m.AccuracySumMeters, m.Finalized, m.FinalizedAt, m.UpdatedAt, m.ShiftID,
	)
	return err
}

func (s *Postgres) CreateDispatch(d *models.Dispatch) error {
	query := `
		INSERT INTO dispatches (
			id, driver_id, order_ref, pickup_latitude, pickup_longitude,
			pickup_address, delivery_latitude, delivery_longitude,
			delivery_address, status, assigned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return s.db.QueryRow(
		query,
		d.ID, d.DriverID, d.OrderRef, d.PickupLatitude, d.PickupLongitude,
		d.PickupAddress, d.DeliveryLatitude, d.DeliveryLongitude,
		d.DeliveryAddress, d.Status, d.AssignedAt,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (s *Postgres) GetDispatch(id string) (*models.Dispatch, error) {
	var d models.Dispatch
	err := s.db.Get(&d, `SELECT * FROM dispatches WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Postgres) GetActiveDispatchForDriver(driverID string) (*models.Dispatch, error) {
	var d models.Dispatch
	query := `SELECT * FROM dispatches
			  WHERE driver_id = $1 AND status != 'completed'
			  ORDER BY assigned_at ASC
			  LIMIT 1`
	err := s.db.Get(&d, query, driverID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Postgres) UpdateDispatchStatus(d *models.Dispatch) error {
	d.UpdatedAt = time.Now().Unix()
	query := `
		UPDATE dispatches SET
			status = $1,
			arrived_at_vendor_at = $2,
			en_route_at = $3,
			arrived_to_client_at = $4,
			completed_at = $5,
			updated_at = $6
		WHERE id = $7
	`
	_, err := s.db.Exec(
		query,
		d.Status, d.ArrivedAtVendorAt, d.EnRouteAt, d.ArrivedToClientAt,
		d.CompletedAt, d.UpdatedAt, d.ID,
	)
	return err
}

func (s *Postgres) ListRestrictedZones() ([]models.RestrictedZone, error) {
	zones := []models.RestrictedZone{}
	err := s.db.Select(&zones, `SELECT * FROM restricted_zones WHERE status = 'active' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return zones, nil
}
