// Package server contains the HTTP and WebSocket handlers of the Look API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "look/docs" // swagger docs
	"look/internal/auth"
	"look/internal/config"
	"look/internal/database"
	"look/internal/featureflags"
	"look/internal/middleware"
	"look/internal/models"
	"look/internal/notifications"
	"look/internal/repository"
	"look/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"gorm.io/gorm"
)

const wsPath = "/api/v1/ws"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	tokens         *auth.TokenManager
	policy         *Policy
	featureFlags   *featureflags.Manager
	userRepo       repository.UserRepository
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
	chatService    *service.ChatService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case realtime delivery is disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	shutdownCtx, shutdownFn := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("look-api"),
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		tokens:         tokens,
		policy:         NewPolicy(DefaultRules),
		featureFlags:   flags,
		userRepo:       userRepo,
		notifier:       notifications.NewNotifier(redisClient),
	}

	if redisClient != nil && flags.EnabledOr(featureflags.Realtime, 0, true) {
		s.hub = notifications.NewHub()
	}

	s.authService = service.NewAuthService(userRepo, roleRepo, tokens)
	s.userService = service.NewUserService(userRepo, roleRepo)
	s.postService = service.NewPostService(postRepo, userRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.chatService = service.NewChatService(chatRepo, userRepo, s.notifier)

	return s, nil
}

// App builds the fiber application once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	// Routes match case-sensitively so the router and the policy table agree
	// on which path a request names.
	app := fiber.New(fiber.Config{
		AppName:       "Look API",
		CaseSensitive: true,
		ErrorHandler:  ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return xid.New().String() },
	}))

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:8081"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).
				JSON(models.NewEnvelope(fiber.StatusTooManyRequests, middleware.MessageRateLimited, nil))
		},
	}))

	// Identity resolution and the access table run before every handler.
	app.Use(middleware.Identify(middleware.IdentifyConfig{
		Tokens:          s.tokens,
		Users:           s.userRepo,
		QueryTokenPaths: []string{wsPath},
	}))
	app.Use(s.policy.Handler())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Swagger documentation
	if s.featureFlags.EnabledOr(featureflags.Swagger, 0, true) {
		api.Get("/swagger/*", swagger.HandlerDefault)
	}

	// A nil *redis.Client must not reach the limiter as a non-nil interface.
	var limiterStore redis.Cmdable
	if s.redis != nil {
		limiterStore = s.redis
	}

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(
		limiterStore, s.config.Env, 5, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(
		limiterStore, s.config.Env, 10, 5*time.Minute, "login"), s.Login)

	v1 := api.Group("/v1")

	// Post routes
	posts := v1.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Comment routes
	comments := v1.Group("/comments")
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	// User routes; /me routes must precede /:id
	users := v1.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/feed", s.GetMyFeed)
	users.Get("/", s.GetAllUsers)
	users.Post("/", s.CreateUser)
	users.Put("/:id/roles", s.UpdateUserRoles)
	users.Patch("/:id/status", s.UpdateUserStatus)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/comments", s.GetUserComments)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.UpdateUser)
	users.Delete("/:id", s.DeleteUser)

	// Chat routes
	chats := v1.Group("/chats")
	chats.Post("/findOrCreate", s.FindOrCreateChat)
	chats.Get("/", s.GetMyChats)
	chats.Post("/:id/messages", middleware.RateLimit(
		limiterStore, s.config.Env, 30, time.Minute, "send_chat"), s.SendMessage)
	chats.Get("/:id/messages", s.GetChatMessages)

	// Websocket endpoint, mounted only when Redis can fan events out
	if s.hub != nil {
		v1.Get("/ws", s.WebsocketHandler())
	}

	// Admin routes
	admin := v1.Group("/admin")
	admin.Get("/feature-flags", s.GetFeatureFlags)
	if s.featureFlags.Enabled(featureflags.MetricsDashboard, 0) {
		admin.Get("/dashboard", monitor.New(monitor.Config{
			Title: "Look API Metrics Dashboard",
		}))
	}
}

// StartWiring subscribes the hub to Redis. It is a no-op without Redis.
func (s *Server) StartWiring() error {
	if s.hub == nil {
		return nil
	}
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	if err := s.StartWiring(); err != nil {
		return fmt.Errorf("start realtime wiring: %w", err)
	}
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops the subscriber, closes websocket clients and drains the app.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Warn("hub shutdown failed", "error", err)
		}
	}
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, "up", fiber.Map{"status": "up"})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return models.Respond(c, status, overall, fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}

// GetFeatureFlags handles GET /api/v1/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if !id.IsAdmin() {
		return respondError(c, models.NewForbiddenError(MessageAccessDenied))
	}
	return models.Respond(c, fiber.StatusOK, "Feature flags fetched successfully", fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(id.UserID),
	})
}
