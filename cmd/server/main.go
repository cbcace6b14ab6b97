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

	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/internal/app/controller"
	"github.com/ikkim/bizdirectory-backend/internal/app/repository"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	"github.com/ikkim/bizdirectory-backend/internal/db"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/internal/router"
	"github.com/ikkim/bizdirectory-backend/internal/scheduler"
	"github.com/ikkim/bizdirectory-backend/internal/storage"
	"github.com/ikkim/bizdirectory-backend/internal/websocket"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
	"github.com/ikkim/bizdirectory-backend/pkg/notify"
	bizredis "github.com/ikkim/bizdirectory-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Server.LogLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting business directory server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Server.LogLevel,
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
	database := db.GetDB()

	if err := db.MigrateDB(database); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedAdmin(database, cfg.Admin); err != nil {
		logger.Warn("Failed to seed admin account", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it there is no cache and logout cannot revoke access tokens.
	var (
		cache     service.Cache
		blacklist service.TokenBlacklist
		revoked   middleware.RevocationChecker
	)
	if cfg.Redis.Enabled {
		store, err := bizredis.Connect(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer store.Close()
		cache, blacklist, revoked = store, store, store
	}

	notifier := notify.New(cfg.SMTP)

	var (
		fileStore storage.FileStore
		presigner controller.Presigner
	)
	if cfg.S3.Enabled() {
		s3Store := storage.NewS3Storage(cfg.S3)
		fileStore, presigner = s3Store, s3Store
	} else {
		local, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL)
		if err != nil {
			logger.Fatal("Failed to prepare upload directory", err)
		}
		fileStore = local
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewUserTokenRepository(database)
	businessRepo := repository.NewBusinessRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	claimRepo := repository.NewClaimRepository(database)
	registrationRepo := repository.NewRegistrationRepository(database)
	subscriptionRepo := repository.NewSubscriptionRepository(database)
	activityRepo := repository.NewActivityRepository(database)

	// Initialize services
	txTimeout := cfg.Reconcile.Timeout
	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		notifier,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	resetService := service.NewPasswordResetService(userRepo, tokenRepo, notifier)
	categoryService := service.NewCategoryService(categoryRepo, businessRepo, cache)
	businessService := service.NewBusinessService(database, businessRepo, userRepo, activityRepo, hub, txTimeout)
	intakeService := service.NewIntakeService(database, registrationRepo, claimRepo, businessRepo, userRepo, activityRepo, hub, txTimeout)
	reconciliationService := service.NewReconciliationService(
		database,
		categoryService,
		businessRepo,
		claimRepo,
		registrationRepo,
		userRepo,
		activityRepo,
		hub,
		notifier,
		txTimeout,
	)
	subscriptionService := service.NewSubscriptionService(database, subscriptionRepo, businessRepo, activityRepo, hub, txTimeout)
	adminService := service.NewAdminService(database, userRepo, businessRepo, intakeService, activityRepo, hub, txTimeout)
	activityService := service.NewActivityService(activityRepo)
	maintenanceService := service.NewMaintenanceService(intakeService, userRepo, tokenRepo, notifier)

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService, resetService),
		Business:     controller.NewBusinessController(businessService),
		Category:     controller.NewCategoryController(categoryService),
		Intake:       controller.NewIntakeController(intakeService),
		Subscription: controller.NewSubscriptionController(subscriptionService),
		Admin: controller.NewAdminController(
			adminService,
			intakeService,
			reconciliationService,
			businessService,
			activityService,
			hub,
			websocket.NewUpgrader(cfg.CORS.AllowedOrigins),
		),
		Upload: controller.NewUploadController(fileStore, presigner, cfg.Upload.MaxBytes),
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revoked)

	sqlDB, err := database.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", err)
	}

	r := router.NewRouter(controllers, authMiddleware, cfg, sqlDB.PingContext)
	engine := r.Setup()

	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewMaintenanceScheduler(maintenanceService, cfg.Scheduler.DigestCron, cfg.Scheduler.TokenCleanupCron)
		if err := jobs.Start(); err != nil {
			logger.Fatal("Failed to start maintenance scheduler", err)
		}
		defer jobs.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	logger.Info("Server stopped successfully")
}
