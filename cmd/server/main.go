package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/beforepeak/beforepeak-backend/config"
	"github.com/beforepeak/beforepeak-backend/internal/app/controller"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
	"github.com/beforepeak/beforepeak-backend/internal/router"
	"github.com/beforepeak/beforepeak-backend/internal/scheduler"
	"github.com/beforepeak/beforepeak-backend/internal/storage"
	"github.com/beforepeak/beforepeak-backend/internal/websocket"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
	"github.com/beforepeak/beforepeak-backend/pkg/payment/stripegw"
	"github.com/beforepeak/beforepeak-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting BeforePeak Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist and the review-gate cache. Both
	// degrade to DB-only behavior, so a missing Redis is not fatal.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, running without cache", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}()
	}

	// Initialize Stripe
	var stripeClient *stripegw.Client
	if cfg.Payment.Stripe.SecretKey != "" {
		stripeClient, err = stripegw.NewClient(stripegw.Config{
			SecretKey:      cfg.Payment.Stripe.SecretKey,
			PublishableKey: cfg.Payment.Stripe.PublishableKey,
			Currency:       cfg.Payment.Stripe.Currency,
		})
		if err != nil {
			logger.Fatal("Failed to initialize Stripe client", err)
		}
	} else {
		logger.Warn("Stripe secret key not set, payment endpoints disabled")
	}

	// Initialize S3 storage for presigned uploads
	s3Storage := storage.NewS3Storage(cfg.S3)

	// Websocket hub for realtime notifications
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	restaurantRepo := repository.NewRestaurantRepository(db.GetDB())
	timeWindowRepo := repository.NewTimeWindowRepository(db.GetDB())
	bookingRepo := repository.NewBookingRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	notificationRepo := repository.NewNotificationRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	reviewService := service.NewReviewService(
		reviewRepo,
		bookingRepo,
		restaurantRepo,
		db.GetDB(),
		cfg.Booking.ReviewGateAge,
	)
	bookingService := service.NewBookingService(
		bookingRepo,
		timeWindowRepo,
		restaurantRepo,
		userRepo,
		reviewRepo,
		notificationService,
		reviewService,
		db.GetDB(),
		cfg.Booking.CancellationWindow,
	)
	restaurantService := service.NewRestaurantService(restaurantRepo, timeWindowRepo)
	paymentService := service.NewPaymentService(bookingRepo, bookingService, stripeClient)
	reportService := service.NewReportService(bookingService, restaurantService)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cfg.JWT.AccessTokenExpiry)
	restaurantController := controller.NewRestaurantController(restaurantService)
	bookingController := controller.NewBookingController(bookingService)
	reviewController := controller.NewReviewController(reviewService)
	paymentController := controller.NewPaymentController(paymentService)
	notificationController := controller.NewNotificationController(notificationService)
	uploadController := controller.NewUploadController(s3Storage)
	reportController := controller.NewReportController(reportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Background jobs: pending-booking expiry, auto-completion, reminders
	bookingScheduler := scheduler.NewBookingScheduler(
		bookingRepo,
		timeWindowRepo,
		bookingService,
		notificationService,
		db.GetDB(),
		cfg.Booking.PendingExpiry,
	)
	if err := bookingScheduler.Start(); err != nil {
		logger.Fatal("Failed to start booking scheduler", err)
	}
	defer bookingScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		restaurantController,
		bookingController,
		reviewController,
		paymentController,
		notificationController,
		uploadController,
		reportController,
		authMiddleware,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
