package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/config"
	"github.com/viora-as/procurement-api/internal/database"
	"github.com/viora-as/procurement-api/internal/http/handler"
	"github.com/viora-as/procurement-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/viora-as/procurement-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	supplierHandler   *handler.SupplierHandler
	orderHandler      *handler.PurchaseOrderHandler
	lifecycleHandler  *handler.PurchaseOrderLifecycleHandler
	timelineHandler   *handler.TimelineHandler
	attachmentHandler *handler.AttachmentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	supplierHandler *handler.SupplierHandler,
	orderHandler *handler.PurchaseOrderHandler,
	lifecycleHandler *handler.PurchaseOrderLifecycleHandler,
	timelineHandler *handler.TimelineHandler,
	attachmentHandler *handler.AttachmentHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		supplierHandler:   supplierHandler,
		orderHandler:      orderHandler,
		lifecycleHandler:  lifecycleHandler,
		timelineHandler:   timelineHandler,
		attachmentHandler: attachmentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Suppliers
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", rt.supplierHandler.List)
				r.Post("/", rt.supplierHandler.Create)
				r.Get("/{id}", rt.supplierHandler.GetByID)
				r.Put("/{id}", rt.supplierHandler.Update)
				r.Delete("/{id}", rt.supplierHandler.Deactivate)
			})

			// Purchase orders
			r.Route("/purchase-orders", func(r chi.Router) {
				r.Get("/", rt.orderHandler.List)
				r.Post("/", rt.orderHandler.Create)
				r.Get("/stats", rt.orderHandler.Stats)
				r.Get("/{id}", rt.orderHandler.GetByID)
				r.Put("/{id}", rt.orderHandler.Update)

				// Draft line editing
				r.Post("/{id}/lines", rt.orderHandler.AddLine)
				r.Put("/{id}/lines/{lineId}", rt.orderHandler.UpdateLine)
				r.Delete("/{id}/lines/{lineId}", rt.orderHandler.DeleteLine)

				// Lifecycle endpoints
				r.Post("/{id}/submit", rt.lifecycleHandler.Submit)
				r.Post("/{id}/receipts", rt.lifecycleHandler.RecordReceipt)
				r.Post("/{id}/close", rt.lifecycleHandler.Close)
				r.Post("/{id}/cancel", rt.lifecycleHandler.Cancel)

				// Timeline
				r.Get("/{id}/timeline", rt.timelineHandler.List)
				r.Post("/{id}/comments", rt.timelineHandler.AddComment)

				// Attachments
				r.Get("/{id}/attachments", rt.attachmentHandler.List)
				r.Post("/{id}/attachments", rt.attachmentHandler.Upload)
				r.Get("/{id}/attachments/{attachmentId}", rt.attachmentHandler.Download)
				r.Delete("/{id}/attachments/{attachmentId}", rt.attachmentHandler.Delete)
			})
		})
	})

	return r
}
