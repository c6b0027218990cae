package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/driveu/backend/internal/cache"
	"github.com/driveu/backend/internal/config"
	"github.com/driveu/backend/internal/database"
	"github.com/driveu/backend/internal/fuel"
	"github.com/driveu/backend/internal/handler"
	"github.com/driveu/backend/internal/middleware"
	"github.com/driveu/backend/internal/notify"
	"github.com/driveu/backend/internal/payments"
	"github.com/driveu/backend/internal/pricing"
	"github.com/driveu/backend/internal/repository"
	"github.com/driveu/backend/internal/routing"
	"github.com/driveu/backend/internal/scheduler"
	"github.com/driveu/backend/internal/service"
	"github.com/driveu/backend/internal/vehicle"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
			newrelic.ConfigInfoLogger(os.Stdout),
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize New Relic: %v", err)
		} else {
			log.Println("New Relic initialized successfully")
			if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
				log.Printf("Warning: New Relic connection timeout: %v", err)
			}
		}
	}

	// Initialize PostgreSQL
	db, err := database.NewPostgres(
		cfg.DatabaseURL,
		cfg.DBMaxConnections,
		cfg.DBMaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis
	redis, err := database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	log.Println("Connected to Redis")

	// External collaborators
	quoter, err := routing.NewGoogleQuoter(cfg.MapsAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize routing client: %v", err)
	}
	gateway := payments.NewStripeGateway(cfg.StripeAPIKey, cfg.Currency)
	sender := notify.NewFCMSender(cfg.FCMEndpoint, cfg.FCMServerKey)
	catalog := vehicle.NewNHTSAClient()

	fuelCache := cache.NewFuelPriceCache(redis.Client, cfg.FuelCacheTTL)
	fuelSource := fuel.NewCachedSource(fuel.NewCollectAPIClient(cfg.CollectAPIKey), fuelCache, cfg.DefaultGasPriceUSD)

	// In-process timers for departure reminders, stale-trip cleanup and
	// dwell reminders.
	timers := scheduler.New()
	defer timers.Stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	futureTripRepo := repository.NewFutureTripRepository(db.DB)
	requestRepo := repository.NewRideRequestRepository(db.DB)
	tripRepo := repository.NewTripRepository(db.DB)

	// Initialize services
	engine := pricing.New()
	notif := service.NewNotifier(userRepo, sender)
	userService := service.NewUserService(userRepo, catalog)
	tripService := service.NewTripService(futureTripRepo, requestRepo, userRepo, quoter, fuelSource, gateway,
		timers, notif, cfg.DepartureReminderLead, cfg.StaleTripGrace)
	requestService := service.NewRequestService(requestRepo, futureTripRepo, userRepo, quoter, engine, gateway, notif)
	lifecycleService := service.NewLifecycleService(requestRepo, futureTripRepo, tripRepo, userRepo, gateway, timers, notif)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	tripHandler := handler.NewTripHandler(tripService, requestService, lifecycleService, cfg.DefaultSearchRadiusMi)
	requestHandler := handler.NewRequestHandler(requestService, lifecycleService)
	historyHandler := handler.NewHistoryHandler(lifecycleService)
	vehicleHandler := handler.NewVehicleHandler(catalog)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// New Relic middleware
	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	// Rate limiter (100 requests per minute per IP)
	rateLimiter := middleware.NewRateLimiter(redis.Client, 100, time.Minute)
	r.Use(rateLimiter.Handler)

	// Idempotency middleware
	idempotencyMw := middleware.NewIdempotencyMiddleware(redis.Client)
	r.Use(idempotencyMw.Handler)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := db.Health(ctx); err != nil {
			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
			return
		}

		if err := redis.Health(ctx); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","services":{"database":"up","redis":"up"}}`))
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		userHandler.RegisterRoutes(r)
		tripHandler.RegisterRoutes(r)
		requestHandler.RegisterRoutes(r)
		historyHandler.RegisterRoutes(r)
		vehicleHandler.RegisterRoutes(r)
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Println("API endpoints:")
	log.Println("  POST /v1/users                  - Register user")
	log.Println("  POST /v1/trips                  - Publish future trip")
	log.Println("  GET  /v1/trips/discover         - Find nearby trips")
	log.Println("  POST /v1/requests               - Request a ride")
	log.Println("  POST /v1/requests/{id}/accept   - Accept a rider")
	log.Println("  POST /v1/trips/{id}/start       - Start the trip")
	log.Println("  POST /v1/requests/{id}/dropoff  - Finish the ride")
	log.Println("  GET  /v1/history/rider/{id}     - Past trips")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
