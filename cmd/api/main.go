package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viora-as/procurement-api/docs"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/config"
	"github.com/viora-as/procurement-api/internal/database"
	"github.com/viora-as/procurement-api/internal/http/handler"
	"github.com/viora-as/procurement-api/internal/http/middleware"
	"github.com/viora-as/procurement-api/internal/http/router"
	"github.com/viora-as/procurement-api/internal/jobs"
	"github.com/viora-as/procurement-api/internal/logger"
	"github.com/viora-as/procurement-api/internal/repository"
	"github.com/viora-as/procurement-api/internal/service"
	"github.com/viora-as/procurement-api/internal/storage"
	"go.uber.org/zap"
)

// @title Viora Procurement API
// @version 1.0
// @description Purchase order lifecycle API for suppliers, orders, receipts and goods-in tracking

// @contact.name API Support
// @contact.email support@viora.no

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "procurement-staging.viora.no"
	case "production":
		docs.SwaggerInfo.Host = "procurement.viora.no"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Initialize services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	stockEvents := service.NewLoggingStockEventPublisher(log)

	supplierService := service.NewSupplierService(supplierRepo, log)
	orderService := service.NewPurchaseOrderService(db, orderRepo, supplierRepo, timelineRepo, log)
	lifecycleService := service.NewPurchaseOrderLifecycleService(db, orderRepo, timelineRepo, numberSequenceService, stockEvents, log)
	timelineService := service.NewTimelineService(orderRepo, timelineRepo, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, orderRepo, fileStorage, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	supplierHandler := handler.NewSupplierHandler(supplierService, log)
	orderHandler := handler.NewPurchaseOrderHandler(orderService, log)
	lifecycleHandler := handler.NewPurchaseOrderLifecycleHandler(lifecycleService, log)
	timelineHandler := handler.NewTimelineHandler(timelineService, log)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, cfg.Storage.MaxUploadSizeMB, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		supplierHandler,
		orderHandler,
		lifecycleHandler,
		timelineHandler,
		attachmentHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		overdueJob := jobs.NewOverdueJob(lifecycleService, log, 5*time.Minute)
		if err := scheduler.AddJob(jobs.OverdueJobName, cfg.Jobs.OverdueCheckSchedule, overdueJob.Run); err != nil {
			log.Error("Failed to register overdue check job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with overdue check job",
				zap.String("cron_expr", cfg.Jobs.OverdueCheckSchedule),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
