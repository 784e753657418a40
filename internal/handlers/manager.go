package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"fleetpulse-backend/internal/models"
	"fleetpulse-backend/internal/services"
	"fleetpulse-backend/internal/store"
	"fleetpulse-backend/internal/tracking"
	"fleetpulse-backend/internal/websocket"
	"fleetpulse-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CreateDispatchRequest struct {
	DriverID          string  `json:"driver_id"`
	OrderRef          *string `json:"order_ref"`
	PickupLatitude    float64 `json:"pickup_latitude"`
	PickupLongitude   float64 `json:"pickup_longitude"`
	PickupAddress     *string `json:"pickup_address"`
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	DeliveryAddress   *string `json:"delivery_address"`
}

// CreateDispatch assigns a new delivery to a driver. The tracking lane learns
// about it immediately so geofences arm on the very next ping, and the driver
// gets a push plus a realtime frame.
func CreateDispatch(db *sqlx.DB, st store.Store, pipe *tracking.Pipeline, hub *websocket.Hub, fcmService *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.DriverID == "" {
			utils.RespondError(w, http.StatusBadRequest, "driver_id is required")
			return
		}
		if !tracking.ValidCoordinates(req.PickupLatitude, req.PickupLongitude) ||
			!tracking.ValidCoordinates(req.DeliveryLatitude, req.DeliveryLongitude) {
			utils.RespondError(w, http.StatusBadRequest, "Invalid pickup or delivery coordinates")
			return
		}

		// One live dispatch per driver keeps the geofence set unambiguous
		if _, err := st.GetActiveDispatchForDriver(req.DriverID); err == nil {
			utils.RespondError(w, http.StatusConflict, "Driver already has an active dispatch")
			return
		}

		dispatch := &models.Dispatch{
			ID:                uuid.New().String(),
			DriverID:          req.DriverID,
			OrderRef:          req.OrderRef,
			PickupLatitude:    req.PickupLatitude,
			PickupLongitude:   req.PickupLongitude,
			PickupAddress:     req.PickupAddress,
			DeliveryLatitude:  req.DeliveryLatitude,
			DeliveryLongitude: req.DeliveryLongitude,
			DeliveryAddress:   req.DeliveryAddress,
			Status:            models.DispatchAssigned,
			AssignedAt:        time.Now().Unix(),
		}

		if err := st.CreateDispatch(dispatch); err != nil {
			log.Printf("❌ Error creating dispatch: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create dispatch")
			return
		}

		// Arm the driver's lane; a driver who is off shift picks it up when
		// their next shift starts
		if err := pipe.AssignDispatch(req.DriverID, dispatch.ID); err != nil {
			log.Printf("⚠️  Lane not notified of dispatch %s: %v", dispatch.ID, err)
		}

		// Send push notification
		notificationSent := false
		if fcmService != nil {
			var fcmToken models.FCMToken
			tokenErr := db.Get(&fcmToken, `SELECT * FROM fcm_tokens WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, req.DriverID)
			if tokenErr == nil {
				pickupAddress := ""
				if req.PickupAddress != nil {
					pickupAddress = *req.PickupAddress
				}
				if err := fcmService.SendDispatchAssignedNotification(fcmToken.Token, dispatch.ID, pickupAddress); err != nil {
					log.Printf("⚠️  Failed to send FCM notification: %v", err)
				} else {
					notificationSent = true
				}
			}
		}

		hub.BroadcastToUser(req.DriverID, map[string]interface{}{
			"type": "dispatch_assigned",
			"data": dispatch,
		})
		hub.BroadcastToRole("manager", map[string]interface{}{
			"type": "dispatch_created",
			"data": dispatch,
		})

		log.Printf("📦 Dispatch %s created for driver %s", dispatch.ID, req.DriverID)

		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"dispatch":          dispatch,
				"notification_sent": notificationSent,
			},
		})
	}
}

// GetDispatch returns one dispatch by id
func GetDispatch(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dispatch, err := st.GetDispatch(chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondError(w, http.StatusNotFound, "Dispatch not found")
				return
			}
			log.Printf("❌ Error fetching dispatch: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch dispatch")
			return
		}
		utils.RespondSuccess(w, dispatch)
	}
}

// GetDispatchEvents returns the audit trail for a dispatch: every geofence
// crossing, status change and rejected trigger, in write order
func GetDispatchEvents(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := st.ListDispatchEvents(chi.URLParam(r, "id"))
		if err != nil {
			log.Printf("❌ Error fetching dispatch events: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch events")
			return
		}
		utils.RespondSuccess(w, events)
	}
}

// ActiveDriverResponse is one on-duty driver on the dispatcher map
type ActiveDriverResponse struct {
	DriverID        string   `json:"driver_id"`
	DriverName      string   `json:"driver_name"`
	ShiftID         string   `json:"shift_id"`
	ShiftStartTime  int64    `json:"shift_start_time"`
	CumulativeMiles float64  `json:"cumulative_miles"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	LastCapturedAt  *int64   `json:"last_captured_at,omitempty"`
	DispatchID      *string  `json:"dispatch_id,omitempty"`
	UpdatedAt       int64    `json:"updated_at"`
}

// GetActiveDrivers returns every driver with an open shift, with their last
// accepted position when one exists
func GetActiveDrivers(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT
				s.driver_id,
				u.name AS driver_name,
				s.id AS shift_id,
				s.start_time,
				st.has_fix,
				st.last_latitude,
				st.last_longitude,
				st.last_captured_at,
				st.cumulative_miles,
				st.dispatch_id,
				st.updated_at
			FROM shifts s
			INNER JOIN users u ON s.driver_id = u.id
			LEFT JOIN driver_runtime_state st ON s.driver_id = st.driver_id
			WHERE s.status = 'active'
			ORDER BY s.start_time DESC
		`

		rows, err := db.Query(query)
		if err != nil {
			log.Printf("❌ Database error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch active drivers")
			return
		}
		defer rows.Close()

		drivers := []ActiveDriverResponse{}
		for rows.Next() {
			var d ActiveDriverResponse
			var hasFix sql.NullBool
			var lat, lng, miles sql.NullFloat64
			var capturedAt, updatedAt sql.NullInt64
			var dispatchID sql.NullString

			err := rows.Scan(
				&d.DriverID, &d.DriverName, &d.ShiftID, &d.ShiftStartTime,
				&hasFix, &lat, &lng, &capturedAt, &miles, &dispatchID, &updatedAt,
			)
			if err != nil {
				log.Printf("❌ Row scan error: %v", err)
				continue
			}

			if hasFix.Valid && hasFix.Bool && lat.Valid && lng.Valid {
				d.Latitude = &lat.Float64
				d.Longitude = &lng.Float64
				if capturedAt.Valid {
					d.LastCapturedAt = &capturedAt.Int64
				}
			}
			if miles.Valid {
				d.CumulativeMiles = miles.Float64
			}
			if dispatchID.Valid {
				d.DispatchID = &dispatchID.String
			}
			if updatedAt.Valid {
				d.UpdatedAt = updatedAt.Int64
			}

			drivers = append(drivers, d)
		}

		utils.RespondSuccess(w, drivers)
	}
}

// GetShiftMileage returns a shift with its mileage ledger
func GetShiftMileage(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID := chi.URLParam(r, "id")

		shift, err := st.GetShift(shiftID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondError(w, http.StatusNotFound, "Shift not found")
				return
			}
			log.Printf("❌ Error fetching shift %s: %v", shiftID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch shift")
			return
		}

		mileage, err := st.GetShiftMileage(shiftID)
		if err != nil {
			log.Printf("❌ Error fetching mileage for shift %s: %v", shiftID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch mileage")
			return
		}

		utils.RespondSuccess(w, map[string]interface{}{
			"shift":   shift,
			"mileage": mileage,
		})
	}
}

// ReconcileShift runs the mileage reconciliation policy against a shift's
// current ledger without finalizing it. Dispatchers use it to sanity-check a
// long shift mid-flight.
func ReconcileShift(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID := chi.URLParam(r, "id")

		outcome, err := pipe.PreviewReconcile(shiftID)
		switch {
		case err == nil:
			utils.RespondSuccess(w, map[string]interface{}{
				"total_miles":  outcome.TotalMiles,
				"source":       outcome.Source,
				"strategy":     outcome.Strategy,
				"needs_review": false,
			})
		case errors.Is(err, tracking.ErrReconciliationAmbiguous):
			utils.RespondSuccess(w, map[string]interface{}{
				"needs_review": true,
			})
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "Shift not found")
		default:
			log.Printf("❌ Error reconciling shift %s: %v", shiftID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to reconcile shift")
		}
	}
}

// GetShiftEvents returns the audit trail for a shift
func GetShiftEvents(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := st.ListShiftEvents(chi.URLParam(r, "id"))
		if err != nil {
			log.Printf("❌ Error fetching shift events: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch events")
			return
		}
		utils.RespondSuccess(w, events)
	}
}
