package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fleetpulse-backend/internal/middleware"
	"fleetpulse-backend/internal/models"
	"fleetpulse-backend/internal/tracking"
	"fleetpulse-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GetRestrictedZones returns all restricted zones (optionally filtered by status)
func GetRestrictedZones(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")

		var zones []models.RestrictedZone

		query := "SELECT * FROM restricted_zones"
		if status != "" {
			query += " WHERE status = $1 ORDER BY updated_at DESC"
			if err := db.Select(&zones, query, status); err != nil {
				log.Printf("❌ Error fetching zones: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch zones")
				return
			}
		} else {
			query += " ORDER BY updated_at DESC"
			if err := db.Select(&zones, query); err != nil {
				log.Printf("❌ Error fetching zones: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch zones")
				return
			}
		}

		response := make([]models.RestrictedZoneResponse, len(zones))
		for i := range zones {
			response[i] = zones[i].ToResponse()
		}

		log.Printf("✅ Found %d restricted zones (status filter: '%s')", len(response), status)
		utils.RespondSuccess(w, response)
	}
}

// GetRestrictedZone returns a single zone by ID
func GetRestrictedZone(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID := chi.URLParam(r, "id")

		var zone models.RestrictedZone
		if err := db.Get(&zone, "SELECT * FROM restricted_zones WHERE id = $1", zoneID); err != nil {
			log.Printf("❌ Zone not found: %v", err)
			utils.RespondError(w, http.StatusNotFound, "Zone not found")
			return
		}

		utils.RespondSuccess(w, zone.ToResponse())
	}
}

type CreateRestrictedZoneRequest struct {
	Name            string  `json:"name"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    int     `json:"radius_meters"`
}

// CreateRestrictedZone adds a new zone. New pings start evaluating against it
// when lanes reload reference data, i.e. on each driver's next shift.
func CreateRestrictedZone(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req CreateRestrictedZoneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" {
			utils.RespondError(w, http.StatusBadRequest, "name is required")
			return
		}
		if !tracking.ValidCoordinates(req.CenterLatitude, req.CenterLongitude) {
			utils.RespondError(w, http.StatusBadRequest, "Invalid center coordinates")
			return
		}
		if req.RadiusMeters <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "radius_meters must be positive")
			return
		}

		now := time.Now().Unix()
		zone := models.RestrictedZone{
			ID:              uuid.New().String(),
			Name:            req.Name,
			CenterLatitude:  req.CenterLatitude,
			CenterLongitude: req.CenterLongitude,
			RadiusMeters:    req.RadiusMeters,
			Status:          "active",
			CreatedByUserID: &userClaims.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		query := `INSERT INTO restricted_zones (
					id, name, center_latitude, center_longitude, radius_meters,
					status, created_by_user_id, created_at, updated_at
				  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err := db.Exec(query,
			zone.ID, zone.Name, zone.CenterLatitude, zone.CenterLongitude,
			zone.RadiusMeters, zone.Status, zone.CreatedByUserID,
			zone.CreatedAt, zone.UpdatedAt,
		)
		if err != nil {
			log.Printf("❌ Error creating restricted zone: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create zone")
			return
		}

		log.Printf("🚧 Restricted zone created: %s (%s)", zone.Name, zone.ID)
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    zone.ToResponse(),
		})
	}
}

// ResolveRestrictedZone marks a zone as resolved; it stops matching new pings
func ResolveRestrictedZone(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID := chi.URLParam(r, "id")

		result, err := db.Exec(`
			UPDATE restricted_zones
			SET status = 'resolved', updated_at = $1
			WHERE id = $2
		`, time.Now().Unix(), zoneID)
		if err != nil {
			log.Printf("❌ Error resolving zone: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to resolve zone")
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			utils.RespondError(w, http.StatusNotFound, "Zone not found")
			return
		}

		log.Printf("✅ Restricted zone %s resolved", zoneID)
		utils.RespondSuccess(w, map[string]string{"zone_id": zoneID, "status": "resolved"})
	}
}
