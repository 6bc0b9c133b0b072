// Package server contains HTTP handlers and wiring for the API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"waypost/internal/cache"
	"waypost/internal/config"
	"waypost/internal/database"
	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/notifications"
	"waypost/internal/repository"
	"waypost/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client

	auth         *service.AuthService
	entries      *service.EntryService
	ledger       *service.EngagementLedger
	sponsorships *service.SponsorshipService
	expeditions  *service.ExpeditionService
	comments     *service.CommentService
	explorerRepo repository.ExplorerRepository
	notifier     *notifications.Notifier
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	middleware.InitMiddleware(cfg)

	var notifier *notifications.Notifier
	if redisClient != nil {
		notifier = notifications.NewNotifier(redisClient)
	}

	return NewServerWithDeps(cfg, db, redisClient, notifier), nil
}

// NewServerWithDeps wires a server from pre-built dependencies. Tests use
// this to inject mocked connections.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, notifier *notifications.Notifier) *Server {
	explorerRepo := repository.NewExplorerRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	expeditionRepo := repository.NewExpeditionRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	sponsorshipRepo := repository.NewSponsorshipRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	viewRepo := repository.NewViewRepository(db)

	gate := service.NewSponsorshipGate(sponsorshipRepo)
	derived := service.NewDerivedFieldsCalculator(entryRepo, expeditionRepo)
	tracker := service.NewViewTracker(viewRepo)

	return &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		auth:         service.NewAuthService(explorerRepo, cfg, redisClient),
		entries:      service.NewEntryService(entryRepo, expeditionRepo, gate, derived, tracker, notifier),
		ledger:       service.NewEngagementLedger(entryRepo, engagementRepo, gate, notifier),
		sponsorships: service.NewSponsorshipService(sponsorshipRepo, explorerRepo),
		expeditions:  service.NewExpeditionService(expeditionRepo),
		comments:     service.NewCommentService(commentRepo, entryRepo, gate),
		explorerRepo: explorerRepo,
		notifier:     notifier,
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	prom := middleware.InitMetrics("waypost")
	prom.RegisterAt(app, "/metrics")
	app.Use(middleware.MetricsMiddleware(prom))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health check
	api.Get("/", s.HealthCheck)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", middleware.RateLimit(s.redis, 10, 5*time.Minute, "refresh"), s.Refresh)
	auth.Post("/logout", s.Logout)

	// Public entry routes; OptionalSession resolves the viewer when a token
	// is present so visibility and viewer flags apply, without requiring one.
	entries := api.Group("/entries", middleware.OptionalSession)
	entries.Get("/", s.GetEntries)
	entries.Get("/:id/comments", s.GetComments)
	entries.Get("/:id", s.GetEntry)

	// Public expedition routes
	expeditions := api.Group("/expeditions", middleware.OptionalSession)
	expeditions.Get("/:id", s.GetExpedition)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Get("/bookmarks", s.GetBookmarkedEntries)
	me.Get("/sponsorships", s.GetMySponsorships)

	protectedEntries := protected.Group("/entries")
	protectedEntries.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_entry"), s.CreateEntry)
	// Specific /:id/:resource routes BEFORE generic /:id routes
	protectedEntries.Post("/:id/like", s.ToggleLike)
	protectedEntries.Post("/:id/bookmark", s.ToggleBookmark)
	protectedEntries.Post("/:id/comments", middleware.RateLimit(s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	protectedEntries.Delete("/:id/comments/:commentId", s.DeleteComment)
	protectedEntries.Put("/:id", s.UpdateEntry)
	protectedEntries.Delete("/:id", s.DeleteEntry)

	protectedExpeditions := protected.Group("/expeditions")
	protectedExpeditions.Post("/", s.CreateExpedition)
	protectedExpeditions.Get("/", s.GetMyExpeditions)
	protectedExpeditions.Put("/:id", s.UpdateExpedition)
	protectedExpeditions.Delete("/:id", s.DeleteExpedition)

	sponsorships := protected.Group("/sponsorships")
	sponsorships.Post("/:creatorId", middleware.RateLimit(s.redis, 5, 5*time.Minute, "sponsor"), s.Sponsor)
	sponsorships.Delete("/:creatorId", s.CancelSponsorship)

	// Moderation surface
	admin := protected.Group("/admin", middleware.AdminRequired)
	admin.Get("/explorers/:username", s.GetExplorerAccount)
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Waypost",
		"version": "1.0.0",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Waypost API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.Context(), "unhandled handler error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// StartNotificationSubscriber consumes the notification channels and logs
// every event. Delivery to clients is handled by a separate service; this
// consumer keeps an audit trail of what was triggered.
func (s *Server) StartNotificationSubscriber(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		middleware.Logger.InfoContext(ctx, "notification event",
			"channel", channel,
			"payload", payload,
		)
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.InfoContext(ctx, "Server shutdown complete")
	return nil
}
