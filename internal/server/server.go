// Package server contains the HTTP handlers for the social graph API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialgraph/internal/auth"
	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/database"
	"socialgraph/internal/events"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
	"socialgraph/internal/service"
	"socialgraph/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	publisher      events.Publisher
	tokens         *auth.TokenIssuer
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
	feedService    *service.FeedService
}

// NewServer connects to every backing service named in cfg and wires the
// engines on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ConnectReplica(cfg); err != nil {
		middleware.Logger.Warn("read replica unavailable, reads use the primary", "error", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}

	pub, err := events.New(cfg, redisClient)
	if err != nil {
		return nil, fmt.Errorf("event publisher init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store, pub), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, an in-memory object store and a recording
// publisher. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore, pub events.Publisher) *Server {
	if pub == nil {
		pub = events.NopPublisher{}
	}

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	maxImageBytes := int64(cfg.ImageMaxUploadSizeMB) << 20

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		publisher:      pub,
		tokens:         auth.NewTokenIssuer(cfg.JWTSecret),
		promMiddleware: middleware.InitMetrics("socialgraph-api"),
	}
	s.followService = service.NewFollowService(tx, userRepo, followRepo, pub)
	s.userService = service.NewUserService(tx, userRepo, followRepo, postRepo, likeRepo, commentRepo, store, maxImageBytes)
	s.postService = service.NewPostService(tx, userRepo, postRepo, likeRepo, commentRepo, store, pub, maxImageBytes)
	s.commentService = service.NewCommentService(tx, postRepo, commentRepo, pub)
	s.likeService = service.NewLikeService(tx, postRepo, likeRepo, pub)
	s.feedService = service.NewFeedService(s.followService, postRepo)
	return s
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	// Base64 inflates uploads by a third; leave room for the JSON around it.
	bodyLimit := s.config.ImageMaxUploadSizeMB*2<<20 + 1<<20

	app := fiber.New(fiber.Config{
		AppName:   "socialgraph API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures all middleware for the application
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())
	// Copies request and trace IDs into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if disk, ok := storage.Unwrap(s.store).(*storage.DiskStore); ok {
		app.Static("/media", disk.Root(), fiber.Static{Browse: false})
	}

	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.Signup)
	authGroup.Post("/login", s.Login)

	api.Get("/feed", authRequired, s.GetFeed)

	posts := api.Group("/posts")
	posts.Post("/", authRequired, s.CreatePost)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Put("/:id", authRequired, s.EditPost)
	posts.Delete("/:id", authRequired, s.DeletePost)
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Delete("/:id/like", authRequired, s.UnlikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, s.CreateComment)

	comments := api.Group("/comments", authRequired)
	comments.Put("/:id", s.EditComment)
	comments.Delete("/:id", s.DeleteComment)

	users := api.Group("/users")
	// "me" must be registered before the :username wildcard.
	users.Get("/", optionalAuth, s.ListUsers)
	users.Get("/me", authRequired, s.GetMyProfile)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Delete("/me", authRequired, s.DeleteMyAccount)
	users.Get("/:username", optionalAuth, s.GetUserProfile)
	users.Post("/:username/follow", authRequired, s.FollowUser)
	users.Delete("/:username/follow", authRequired, s.UnfollowUser)
	users.Get("/:username/posts", optionalAuth, s.GetUserPosts)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports unhealthy when the database is unreachable. Redis
// only backs the cache and event fan-out, so its absence is reported but does
// not fail the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
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
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"events":   s.publisher.Backend(),
		},
		"time": time.Now(),
	})
}

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, then closes the publisher and the
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing event publisher", "backend", s.publisher.Backend(), "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}
	database.Close()

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
