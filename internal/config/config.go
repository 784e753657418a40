package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Tracking holds the static tuning knobs for the tracking core. Values come
// from the environment with sensible defaults; nothing here changes at
// runtime.
type Tracking struct {
	MaxAccuracyMeters           float64 // Reject pings with worse horizontal accuracy
	MaxImpliedSpeedMph          float64 // Reject teleport jumps above this implied speed
	GeofenceRadiusMeters        float64 // Radius of pickup/delivery fences derived from dispatch coordinates
	HysteresisSamples           int     // Consecutive confirming samples to flip a fence in/out
	BroadcastMinIntervalSeconds int     // Per-driver floor between location broadcasts
	MileageToleranceRatio       float64 // GPS vs odometer relative deviation treated as agreement
	StationaryCapMiles          float64 // Per-sample distance ceiling while flagged stationary
	DegradedAccuracyMeters      float64 // Average accuracy above this weights the hybrid rule toward the odometer
	StoreMaxRetries             int     // Attempts per durable write before dead-lettering
	StoreRetryBackoff           time.Duration
	ShiftDrainGrace             time.Duration // Bounded wait for in-flight pings at shift end
	LaneBufferSize              int           // Per-driver mailbox capacity
}

// Load reads the tracking configuration from the environment
func Load() Tracking {
	cfg := Tracking{
		MaxAccuracyMeters:           envFloat("TRACKING_MAX_ACCURACY_METERS", 50),
		MaxImpliedSpeedMph:          envFloat("TRACKING_MAX_IMPLIED_SPEED_MPH", 130),
		GeofenceRadiusMeters:        envFloat("TRACKING_GEOFENCE_RADIUS_METERS", 100),
		HysteresisSamples:           envInt("TRACKING_HYSTERESIS_SAMPLES", 2),
		BroadcastMinIntervalSeconds: envInt("TRACKING_BROADCAST_MIN_INTERVAL_SECONDS", 3),
		MileageToleranceRatio:       envFloat("TRACKING_MILEAGE_TOLERANCE_RATIO", 0.15),
		StationaryCapMiles:          envFloat("TRACKING_STATIONARY_CAP_MILES", 0.05),
		DegradedAccuracyMeters:      envFloat("TRACKING_DEGRADED_ACCURACY_METERS", 30),
		StoreMaxRetries:             envInt("TRACKING_STORE_MAX_RETRIES", 3),
		StoreRetryBackoff:           time.Duration(envInt("TRACKING_STORE_RETRY_BACKOFF_MS", 200)) * time.Millisecond,
		ShiftDrainGrace:             time.Duration(envInt("TRACKING_SHIFT_DRAIN_GRACE_SECONDS", 5)) * time.Second,
		LaneBufferSize:              envInt("TRACKING_LANE_BUFFER_SIZE", 64),
	}

	log.Printf("⚙️  Tracking config: accuracy<=%.0fm, speed<=%.0fmph, fence=%.0fm, hysteresis=%d, broadcast>=%ds, tolerance=%.0f%%",
		cfg.MaxAccuracyMeters, cfg.MaxImpliedSpeedMph, cfg.GeofenceRadiusMeters,
		cfg.HysteresisSamples, cfg.BroadcastMinIntervalSeconds, cfg.MileageToleranceRatio*100)

	return cfg
}

// Default returns the stock configuration without touching the environment.
// Tests build on this.
func Default() Tracking {
	return Tracking{
		MaxAccuracyMeters:           50,
		MaxImpliedSpeedMph:          130,
		GeofenceRadiusMeters:        100,
		HysteresisSamples:           2,
		BroadcastMinIntervalSeconds: 3,
		MileageToleranceRatio:       0.15,
		StationaryCapMiles:          0.05,
		DegradedAccuracyMeters:      30,
		StoreMaxRetries:             3,
		StoreRetryBackoff:           200 * time.Millisecond,
		ShiftDrainGrace:             5 * time.Second,
		LaneBufferSize:              64,
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}
