// Package server contains the HTTP handlers of the forum API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "agora/docs" // swagger docs
	"agora/internal/config"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/tenant"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the server is built from. The bootstrap layer
// establishes the stores; tests pass in-memory ones.
type Deps struct {
	Central   *gorm.DB
	Redis     *redis.Client
	Tenants   *tenant.Router
	Directory service.Directory
	Publisher service.Publisher
	Now       func() time.Time
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	central        *gorm.DB
	redis          *redis.Client
	tenants        *tenant.Router
	forumDeps      service.Deps
	auth           middleware.AuthConfig
	limiter        *middleware.RateLimiter
	promMiddleware *fiberprometheus.FiberPrometheus
	app            *fiber.App
}

// NewServer creates the server and its Fiber app with middleware and routes
// in place.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config:  cfg,
		central: deps.Central,
		redis:   deps.Redis,
		tenants: deps.Tenants,
		forumDeps: service.Deps{
			Directory: deps.Directory,
			Publisher: deps.Publisher,
			Now:       deps.Now,
		},
		auth:           middleware.AuthConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		limiter:        middleware.NewRateLimiter(deps.Redis, cfg.Env == "test"),
		promMiddleware: middleware.InitMetrics("agora-api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "Agora Forum API",
		BodyLimit:    2 * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s
}

// App returns the Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.limiter.Disabled
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	protected := api.Group("", middleware.Authenticate(s.auth), s.TenantRequired())

	discussions := protected.Group("/discussions")
	discussions.Get("/", s.ListDiscussions)
	discussions.Post("/", s.limiter.Limit(10, time.Minute, "create_discussion", middleware.FailOpen), s.CreateDiscussion)
	// Specific /:id/:resource routes before the generic /:id routes
	discussions.Post("/:id/archive", s.ArchiveDiscussion)
	discussions.Post("/:id/view", s.MarkViewed)
	discussions.Get("/:id/replies", s.ListReplies)
	discussions.Post("/:id/replies", s.limiter.Limit(30, time.Minute, "create_reply", middleware.FailOpen), s.CreateReply)
	discussions.Post("/:id/pin/toggle", s.TogglePin)
	discussions.Get("/:id/pin", s.PinStatus)
	discussions.Get("/:id", s.GetDiscussion)
	discussions.Put("/:id", s.UpdateDiscussion)
	discussions.Delete("/:id", s.DeleteDiscussion)

	replies := protected.Group("/replies")
	replies.Get("/:id/replies", s.ListSubReplies)
	replies.Get("/:id", s.GetReply)
	replies.Put("/:id", s.UpdateReply)
	replies.Delete("/:id", s.DeleteReply)

	likes := protected.Group("/likes/:entityType/:id")
	likes.Post("/toggle", s.ToggleLike)
	likes.Get("/users", s.ListLikers)
	likes.Post("/", s.Like)
	likes.Delete("/", s.Unlike)
	likes.Get("/", s.LikeStatus)

	reports := protected.Group("/reports")
	reports.Post("/", s.limiter.Limit(10, 10*time.Minute, "create_report", middleware.FailOpen), s.ReportContent)
	reports.Get("/", s.ListReports)
	reports.Put("/:id", s.ReviewReport)

	me := protected.Group("/me")
	me.Get("/unread", s.UnreadCounts)
	me.Get("/mentions", s.ListMentions)

	protected.Get("/members/mentionable", s.MentionCandidates)
}

// TenantRequired resolves the tenant named by the principal's tenant claim.
// It must run after Authenticate.
func (s *Server) TenantRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := middleware.CurrentPrincipal(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		tc, err := s.tenants.Get(c.UserContext(), p.TenantKey)
		if err != nil {
			return respondError(c, err)
		}
		c.Locals(tenantLocal, tc)
		return c.Next()
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.central == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := s.central.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs caching and delivery; the engine keeps serving
	// without it.
	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"tenants": len(s.tenants.Keys()),
		"time":    time.Now(),
	})
}

// Start listens on the configured port.
func (s *Server) Start() error {
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
	}

	if s.tenants != nil {
		if err := s.tenants.Close(); err != nil {
			middleware.Logger.Error("error closing tenant stores", slog.String("error", err.Error()))
		}
	}

	if s.central != nil {
		if sqlDB, err := s.central.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing central DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
