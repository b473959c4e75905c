// Package server contains the HTTP handlers for the formstack API and page endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "formstack/docs" // swagger docs
	"formstack/internal/cache"
	"formstack/internal/config"
	"formstack/internal/database"
	"formstack/internal/middleware"
	"formstack/internal/models"
	"formstack/internal/repository"
	"formstack/internal/service"

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
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	userRepo         repository.UserRepository
	templateRepo     repository.TemplateRepository
	fieldRepo        repository.FieldRepository
	employeeRepo     repository.EmployeeRepository
	userService      *service.UserService
	templateService  *service.TemplateService
	fieldService     *service.FieldService
	employeeService  *service.EmployeeService
	exportService    *service.ExportService
	avatarService    *service.AvatarService
	dashboardService *service.DashboardService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching and revocation.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}
	if redisClient != nil && cache.GetClient() != redisClient {
		cache.SetClient(redisClient)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("formstack-api"),
		userRepo:       repository.NewUserRepository(db),
		templateRepo:   repository.NewTemplateRepository(db),
		fieldRepo:      repository.NewFieldRepository(db),
		employeeRepo:   repository.NewEmployeeRepository(db),
	}

	server.userService = service.NewUserService(server.userRepo)
	server.templateService = service.NewTemplateService(server.templateRepo)
	server.fieldService = service.NewFieldService(server.templateRepo, server.fieldRepo)
	server.employeeService = service.NewEmployeeService(server.templateRepo, server.fieldRepo, server.employeeRepo)
	server.exportService = service.NewExportService(server.templateRepo, server.fieldRepo, server.employeeRepo)
	server.avatarService = service.NewAvatarService(server.userService, cfg)
	server.dashboardService = service.NewDashboardService(server.templateRepo, server.employeeRepo)

	return server, nil
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Formstack API",
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    s.bodyLimit(),
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// bodyLimit leaves room for the multipart framing around the largest avatar.
func (s *Server) bodyLimit() int {
	mb := s.config.AvatarMaxUploadSizeMB
	if mb <= 0 {
		mb = service.DefaultAvatarMaxUploadSizeMB
	}
	return (mb + 1) * 1024 * 1024
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:8000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRFToken",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
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
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Formstack Metrics Dashboard",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/media/avatars", s.avatarService.UploadDir(), fiber.Static{
		Browse: false,
	})

	// Public auth routes
	app.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	token := app.Group("/api/token")
	token.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.ObtainToken)
	token.Post("/refresh", s.RefreshToken)

	auth := s.AuthRequired()

	app.Post("/logout", auth, s.Logout)
	app.Post("/change-password", auth, s.ChangePassword)

	app.Get("/profile", auth, s.GetProfile)
	app.Put("/profile", auth, s.UpdateProfile)
	app.Post("/profile/avatar", auth, s.UploadAvatar)

	app.Get("/dashboard", auth, s.GetDashboard)
	app.Get("/recent-activity", auth, s.GetRecentActivity)

	forms := app.Group("/forms", auth)
	// Static segments BEFORE parameterised ones
	forms.Post("/fields/reorder", s.ReorderFields)
	forms.Get("/", s.ListTemplates)
	forms.Post("/", s.CreateTemplate)
	forms.Get("/:id/employees/export", s.ExportEmployees)
	forms.Post("/:template_id/employees", s.CreateEmployeeFromForm)
	forms.Get("/:template_id/fields", s.ListFields)
	forms.Post("/:template_id/fields", s.CreateField)
	forms.Get("/:template_id/fields/:id", s.GetField)
	forms.Put("/:template_id/fields/:id", s.UpdateField)
	forms.Patch("/:template_id/fields/:id", s.UpdateField)
	forms.Delete("/:template_id/fields/:id", s.DeleteField)
	forms.Get("/:id", s.GetTemplate)
	forms.Put("/:id", s.UpdateTemplate)
	forms.Patch("/:id", s.UpdateTemplate)
	forms.Delete("/:id", s.DeleteTemplate)

	employees := app.Group("/employees", auth)
	employees.Get("/", s.ListEmployees)
	employees.Post("/", s.CreateEmployee)
	employees.Put("/:id/data/:field_id", s.SetEmployeeValue)
	employees.Get("/:id", s.GetEmployee)
	employees.Put("/:id", s.UpdateEmployee)
	employees.Patch("/:id", s.UpdateEmployee)
	employees.Delete("/:id", s.DeleteEmployee)

	ajax := app.Group("/ajax", auth)
	ajax.Post("/save-field-order", s.SaveFieldOrder)
	ajax.Delete("/delete-field/:id", s.AjaxDeleteField)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// the database decides readiness.
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

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// ErrorHandler turns any error that escapes a handler into a JSON response.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithAppError(c, err)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"path", c.Path(), "error", err.Error())
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
