package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("🔌 Connecting to database...")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ Database connection failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ Database ping failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection successful")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('driver', 'manager')),
			phone TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create shifts table
		`CREATE TABLE IF NOT EXISTS shifts (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('active', 'ended')),
			start_time BIGINT NOT NULL,
			end_time BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create shift_mileage table (one ledger row per shift)
		`CREATE TABLE IF NOT EXISTS shift_mileage (
			shift_id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			gps_distance_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
			reported_distance_miles DOUBLE PRECISION,
			manual_override_miles DOUBLE PRECISION,
			total_distance_miles DOUBLE PRECISION,
			mileage_source TEXT CHECK(mileage_source IN ('gps', 'odometer', 'manual', 'hybrid')),
			gps_sample_count INT NOT NULL DEFAULT 0,
			accuracy_sum_meters DOUBLE PRECISION NOT NULL DEFAULT 0,
			finalized BOOLEAN NOT NULL DEFAULT FALSE,
			finalized_at BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE CASCADE,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create location_pings table (append-only, rejected samples included)
		`CREATE TABLE IF NOT EXISTS location_pings (
			id BIGSERIAL PRIMARY KEY,
			driver_id TEXT NOT NULL,
			shift_id TEXT,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			speed DOUBLE PRECISION,
			heading DOUBLE PRECISION,
			altitude DOUBLE PRECISION,
			battery_level DOUBLE PRECISION,
			is_moving BOOLEAN NOT NULL DEFAULT TRUE,
			activity_type TEXT NOT NULL DEFAULT 'unknown',
			accepted BOOLEAN NOT NULL,
			reject_reason TEXT,
			captured_at BIGINT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE SET NULL
		)`,

		// Create driver_runtime_state table (one row per on-duty driver)
		`CREATE TABLE IF NOT EXISTS driver_runtime_state (
			driver_id TEXT PRIMARY KEY,
			shift_id TEXT NOT NULL,
			has_fix BOOLEAN NOT NULL DEFAULT FALSE,
			last_latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_captured_at BIGINT NOT NULL DEFAULT 0,
			cumulative_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
			dispatch_id TEXT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create dispatches table
		`CREATE TABLE IF NOT EXISTS dispatches (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			order_ref TEXT,
			pickup_latitude DOUBLE PRECISION NOT NULL,
			pickup_longitude DOUBLE PRECISION NOT NULL,
			pickup_address TEXT,
			delivery_latitude DOUBLE PRECISION NOT NULL,
			delivery_longitude DOUBLE PRECISION NOT NULL,
			delivery_address TEXT,
			status TEXT NOT NULL CHECK(status IN ('assigned', 'arrived_at_vendor', 'en_route_to_client', 'arrived_to_client', 'completed')),
			assigned_at BIGINT NOT NULL,
			arrived_at_vendor_at BIGINT,
			en_route_at BIGINT,
			arrived_to_client_at BIGINT,
			completed_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create tracking_events table (append-only audit trail)
		`CREATE TABLE IF NOT EXISTS tracking_events (
			id BIGSERIAL PRIMARY KEY,
			driver_id TEXT NOT NULL,
			dispatch_id TEXT,
			shift_id TEXT,
			event_type TEXT NOT NULL,
			cause TEXT,
			detail TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create restricted_zones table
		`CREATE TABLE IF NOT EXISTS restricted_zones (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			center_latitude DOUBLE PRECISION NOT NULL,
			center_longitude DOUBLE PRECISION NOT NULL,
			radius_meters INT NOT NULL DEFAULT 100,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'monitoring', 'resolved')),
			created_by_user_id TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (created_by_user_id) REFERENCES users(id) ON DELETE SET NULL
		)`,

		// Create FCM tokens table
		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Indexes for shifts
		`CREATE INDEX IF NOT EXISTS idx_shifts_driver_id ON shifts(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_driver_status ON shifts(driver_id, status)`,

		// Indexes for location_pings
		`CREATE INDEX IF NOT EXISTS idx_location_pings_driver ON location_pings(driver_id, captured_at)`,
		`CREATE INDEX IF NOT EXISTS idx_location_pings_shift ON location_pings(shift_id)`,
		`CREATE INDEX IF NOT EXISTS idx_location_pings_accepted ON location_pings(accepted)`,

		// Indexes for dispatches
		`CREATE INDEX IF NOT EXISTS idx_dispatches_driver ON dispatches(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_driver_status ON dispatches(driver_id, status)`,

		// Indexes for tracking_events
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_driver ON tracking_events(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_dispatch ON tracking_events(dispatch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_shift ON tracking_events(shift_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_type ON tracking_events(event_type)`,

		// Indexes for restricted_zones
		`CREATE INDEX IF NOT EXISTS idx_restricted_zones_status ON restricted_zones(status)`,
		`CREATE INDEX IF NOT EXISTS idx_restricted_zones_location ON restricted_zones(center_latitude, center_longitude)`,

		// Index for fcm_tokens
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user ON fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
