package main

import (
	"log"
	"net/http"
	"os"

	"fleetpulse-backend/internal/config"
	"fleetpulse-backend/internal/database"
	"fleetpulse-backend/internal/handlers"
	"fleetpulse-backend/internal/middleware"
	"fleetpulse-backend/internal/services"
	"fleetpulse-backend/internal/store"
	"fleetpulse-backend/internal/tracking"
	"fleetpulse-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 FLEETPULSE BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Database migrations failed: %v", err)
	}

	if err := database.SeedUsers(db); err != nil {
		log.Fatalf("❌ User seeding failed: %v", err)
	}

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64")

	if fcmCredsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}

		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// WebSocket hub doubles as the tracking core's broadcast publisher
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Tracking core: per-driver lanes over the Postgres-backed store
	st := store.NewPostgres(db)
	pipe := tracking.NewPipeline(config.Load(), st, wsHub)
	log.Println("✅ Tracking pipeline ready")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Restricted zones are readable by any authenticated user
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)

			r.Get("/restricted-zones", handlers.GetRestrictedZones(db))
			r.Get("/restricted-zones/{id}", handlers.GetRestrictedZone(db))
		})

		// Driver endpoints (require authentication + driver role)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Use(middleware.RequireRole("driver"))

			// Shift management
			r.Get("/driver/shift/current", handlers.GetCurrentShift(st))
			r.Post("/driver/shift/start", handlers.StartShift(pipe))
			r.Post("/driver/shift/end", handlers.EndShift(pipe))
			r.Post("/driver/shift/report-mileage", handlers.ReportMileage(pipe))

			// Location tracking (batched pings during active shift)
			r.Post("/driver/location", handlers.UpdateLocation(pipe))

			// Dispatch progression (manual fallback when geofences miss)
			r.Post("/driver/dispatch/{id}/advance", handlers.AdvanceDispatch(pipe))

			// FCM token registration
			r.Post("/driver/fcm-token", handlers.RegisterFCMToken(db))
		})

		// Manager endpoints (require authentication + manager role)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Use(middleware.RequireRole("manager"))

			// Dispatch management
			r.Post("/manager/dispatches", handlers.CreateDispatch(db, st, pipe, wsHub, fcmService))
			r.Get("/manager/dispatches/{id}", handlers.GetDispatch(st))
			r.Get("/manager/dispatches/{id}/events", handlers.GetDispatchEvents(st))

			// Fleet overview
			r.Get("/manager/active-drivers", handlers.GetActiveDrivers(db))
			r.Get("/manager/drivers", handlers.GetDrivers(db))

			// Mileage reconciliation
			r.Get("/manager/shifts/{id}/mileage", handlers.GetShiftMileage(st))
			r.Get("/manager/shifts/{id}/reconcile", handlers.ReconcileShift(pipe))
			r.Get("/manager/shifts/{id}/events", handlers.GetShiftEvents(st))

			// Restricted zone management
			r.Post("/manager/restricted-zones", handlers.CreateRestrictedZone(db))
			r.Post("/manager/restricted-zones/{id}/resolve", handlers.ResolveRestrictedZone(db))

			// User management
			r.Post("/users", handlers.CreateUser(db))
		})
	})

	// Get port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
