package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/application"
	"github.com/stayloop/service-booking/internal/catalog"
	"github.com/stayloop/service-booking/internal/config"
	"github.com/stayloop/service-booking/internal/database"
	"github.com/stayloop/service-booking/internal/events"
	"github.com/stayloop/service-booking/internal/handler"
	"github.com/stayloop/service-booking/internal/logger"
	"github.com/stayloop/service-booking/internal/middleware"
	"github.com/stayloop/service-booking/internal/payments"
	"github.com/stayloop/service-booking/internal/repository"
)

const serviceName = "service-booking"

// devExclusionConstraint backfills the confirmed-overlap guard that the SQL
// migrations create in non-dev environments. AutoMigrate cannot express
// exclusion constraints.
const devExclusionConstraint = `
CREATE EXTENSION IF NOT EXISTS btree_gist;
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'excl_bookings_confirmed_overlap'
	) THEN
		ALTER TABLE bookings ADD CONSTRAINT excl_bookings_confirmed_overlap
			EXCLUDE USING gist (
				property_id WITH =,
				daterange(start_date, end_date) WITH &&
			) WHERE (status = 'confirmed');
	END IF;
END $$;
`

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.PaymentModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		if err := db.Exec(devExclusionConstraint).Error; err != nil {
			log.Fatal("failed to create exclusion constraint", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Load the static property catalog
	propertyCatalog, err := catalog.NewStaticCatalog()
	if err != nil {
		log.Fatal("failed to load property catalog", zap.Error(err))
	}

	// Select the payment provider: mock mode when no Stripe key is configured
	var provider payments.Provider
	if cfg.Stripe.SecretKey == "" {
		log.Warn("no Stripe secret key configured, running in mock payment mode")
		provider = payments.NewMockProvider()
	} else {
		provider = payments.NewStripeProvider(cfg.Stripe.SecretKey)
	}

	// Select the reservation-sync notifier: log-only when no brokers configured
	var notifier application.ReservationSyncNotifier
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("no Kafka brokers configured, reservation sync runs in log-only mode")
		notifier = events.NewLogSyncNotifier(log)
	} else {
		producer := events.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = producer.Close() }()
		notifier = events.NewKafkaSyncNotifier(producer, cfg.Kafka.SyncTopic, log)
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)

	// Initialize application services
	bookingService := application.NewBookingService(
		propertyCatalog,
		bookingRepo,
		paymentRepo,
		provider,
		notifier,
		log,
	)
	paymentService := application.NewPaymentService(propertyCatalog, provider, log)
	propertyService := application.NewPropertyService(propertyCatalog)
	availabilityChecker := application.NewAvailabilityChecker(propertyCatalog, bookingRepo)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	propertyHandler := handler.NewPropertyHandler(propertyService, availabilityChecker, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	adminHandler := handler.NewAdminHandler(bookingService, log)

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := handler.NewHealthHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	propertyHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterRoutes(apiV1)
	bookingHandler.RegisterRoutes(apiV1)
	adminHandler.RegisterRoutes(apiV1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
