package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"

	"fleetpulse-backend/internal/middleware"
	"fleetpulse-backend/internal/models"
	"fleetpulse-backend/internal/store"
	"fleetpulse-backend/internal/tracking"
	"fleetpulse-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// UpdateLocationRequest carries a batch of samples. Mobile clients buffer
// offline and flush on reconnect, so a single request may hold minutes of
// history.
type UpdateLocationRequest struct {
	Pings []models.LocationPing `json:"pings"`
}

// UpdateLocation ingests location samples for the authenticated driver.
// Samples are handed to the driver's pipeline lane; this handler never waits
// for processing, so device upload latency stays flat under load.
func UpdateLocation(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req UpdateLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(req.Pings) == 0 {
			utils.RespondError(w, http.StatusBadRequest, "No pings in request")
			return
		}

		// Offline flushes can arrive shuffled; feed the filter oldest-first
		sort.Slice(req.Pings, func(i, j int) bool {
			return req.Pings[i].CapturedAt < req.Pings[j].CapturedAt
		})

		queued, shed := 0, 0
		for i := range req.Pings {
			ping := req.Pings[i]
			ping.DriverID = userClaims.UserID // never trust the body for identity

			err := pipe.SubmitPing(&ping)
			switch {
			case err == nil:
				queued++
			case errors.Is(err, tracking.ErrLaneBusy):
				shed++
			case errors.Is(err, tracking.ErrNoActiveShift):
				utils.RespondError(w, http.StatusConflict, "No active shift")
				return
			case errors.Is(err, tracking.ErrLaneClosed):
				utils.RespondError(w, http.StatusConflict, "Shift is ending")
				return
			default:
				log.Printf("❌ Ping submit failed for driver %s: %v", userClaims.UserID, err)
				utils.RespondError(w, http.StatusInternalServerError, "Failed to submit location")
				return
			}
		}

		status := http.StatusOK
		if shed > 0 {
			// Partial shedding: tell the client to back off and resend later
			status = http.StatusTooManyRequests
		}
		utils.RespondJSON(w, status, map[string]interface{}{
			"success": true,
			"data":    map[string]int{"queued": queued, "shed": shed},
		})
	}
}

// StartShift opens a shift for the authenticated driver
func StartShift(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		shift, err := pipe.StartShift(userClaims.UserID)
		if err != nil {
			log.Printf("❌ Failed to start shift for %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to start shift")
			return
		}

		utils.RespondSuccess(w, shift)
	}
}

// EndShift closes the authenticated driver's shift and returns the finalized
// mileage ledger. A shift with no usable mileage source comes back with
// needs_review set and the total left null.
func EndShift(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		mileage, err := pipe.EndShift(userClaims.UserID)
		switch {
		case err == nil:
			utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"mileage": mileage, "needs_review": false},
			})
		case errors.Is(err, tracking.ErrReconciliationAmbiguous):
			log.Printf("⚠️  Shift ended with no usable mileage source for driver %s", userClaims.UserID)
			utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"mileage": mileage, "needs_review": true},
			})
		case errors.Is(err, tracking.ErrNoActiveShift):
			utils.RespondError(w, http.StatusConflict, "No active shift")
		default:
			log.Printf("❌ Failed to end shift for %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to end shift")
		}
	}
}

type ReportMileageRequest struct {
	ReportedMiles       *float64 `json:"reported_miles"`
	ManualOverrideMiles *float64 `json:"manual_override_miles"`
}

// ReportMileage records an odometer reading or a manual correction against
// the driver's active shift
func ReportMileage(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req ReportMileageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.ReportedMiles == nil && req.ManualOverrideMiles == nil {
			utils.RespondError(w, http.StatusBadRequest, "Nothing to report")
			return
		}
		if (req.ReportedMiles != nil && *req.ReportedMiles < 0) ||
			(req.ManualOverrideMiles != nil && *req.ManualOverrideMiles < 0) {
			utils.RespondError(w, http.StatusBadRequest, "Mileage cannot be negative")
			return
		}

		err := pipe.ReportMileage(userClaims.UserID, req.ReportedMiles, req.ManualOverrideMiles)
		switch {
		case err == nil:
			utils.RespondSuccess(w, map[string]string{"message": "Mileage recorded"})
		case errors.Is(err, tracking.ErrNoActiveShift):
			utils.RespondError(w, http.StatusConflict, "No active shift")
		case errors.Is(err, tracking.ErrMileageFinalized):
			utils.RespondError(w, http.StatusConflict, "Shift mileage already finalized")
		case errors.Is(err, tracking.ErrLaneBusy), errors.Is(err, tracking.ErrLaneClosed):
			utils.RespondError(w, http.StatusConflict, "Shift is busy, try again")
		default:
			log.Printf("❌ Failed to record mileage for %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to record mileage")
		}
	}
}

// GetCurrentShift returns the driver's open shift with its running mileage
// ledger, runtime position and active dispatch, if any
func GetCurrentShift(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		shift, err := st.GetActiveShift(userClaims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondError(w, http.StatusNotFound, "No active shift")
				return
			}
			log.Printf("❌ Failed to load shift for %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to load shift")
			return
		}

		data := map[string]interface{}{"shift": shift}

		if mileage, err := st.GetShiftMileage(shift.ID); err == nil {
			data["mileage"] = mileage
		}
		if state, err := st.GetDriverState(userClaims.UserID); err == nil {
			data["runtime_state"] = state
		}
		if dispatch, err := st.GetActiveDispatchForDriver(userClaims.UserID); err == nil {
			data["dispatch"] = dispatch
		}

		utils.RespondSuccess(w, data)
	}
}

type AdvanceDispatchRequest struct {
	Action string `json:"action"` // "advance" or "complete"
}

// AdvanceDispatch applies an explicit driver action to their active dispatch.
// "advance" moves one step where manual advancement is allowed; "complete"
// closes out a dispatch the driver has arrived at. The serialized lane makes
// a stale button press race-free: whatever the geofences already did wins.
func AdvanceDispatch(pipe *tracking.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		dispatchID := chi.URLParam(r, "id")

		var req AdvanceDispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var trig tracking.Trigger
		switch req.Action {
		case "advance":
			trig = tracking.TriggerManualAdvance
		case "complete":
			trig = tracking.TriggerComplete
		default:
			utils.RespondError(w, http.StatusBadRequest, "Invalid action (must be 'advance' or 'complete')")
			return
		}

		dispatch, err := pipe.SubmitManualAdvance(userClaims.UserID, trig)
		switch {
		case err == nil:
			if dispatch.ID != dispatchID {
				// The lane advanced a different dispatch than the client
				// thinks is active; surface that instead of hiding it
				log.Printf("⚠️  Driver %s advanced dispatch %s but requested %s",
					userClaims.UserID, dispatch.ID, dispatchID)
			}
			utils.RespondSuccess(w, dispatch)
		case errors.Is(err, tracking.ErrOutOfOrderTransition):
			utils.RespondError(w, http.StatusConflict, "Action not applicable to current dispatch status")
		case errors.Is(err, tracking.ErrNoActiveShift):
			utils.RespondError(w, http.StatusConflict, "No active shift")
		case errors.Is(err, tracking.ErrLaneBusy), errors.Is(err, tracking.ErrLaneClosed):
			utils.RespondError(w, http.StatusConflict, "Shift is busy, try again")
		default:
			log.Printf("❌ Failed to advance dispatch for %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to advance dispatch")
		}
	}
}
