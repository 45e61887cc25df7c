package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-api/modules/activity"
	"github.com/example/task-api/modules/task"
	"github.com/example/task-api/modules/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Config controls the HTTP server.
type Config struct {
	Addr        string
	CORSOrigins string
	// RateLimitMax is the number of requests one client may make per
	// RateLimitWindow. Zero disables rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// HealthChecker is a module whose health /health reports.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// APIModule is the driving adapter that exposes REST endpoints.
// It calls into the user, task and activity modules through their ports.
type APIModule struct {
	app      *fiber.App
	cfg      Config
	users    user.UserPort
	tasks    task.TaskPort
	activity activity.ActivityPort
	checks   []HealthChecker
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. checks are reported by GET /health.
func NewModule(cfg Config, logger types.Logger, checks ...HealthChecker) *APIModule {
	return &APIModule{
		cfg:    cfg,
		checks: checks,
		logger: logger,
	}
}

func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
// The framework will call SetDependencyServiceContainer for each dependency.
func (m *APIModule) Dependencies() []string {
	return []string{"user", "task", "activity"}
}

func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "user":
		m.users = user.NewUserAdapter(container)
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "activity":
		m.activity = activity.NewActivityAdapter(container)
	}
}

// Start initializes and starts the HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	switch {
	case m.users == nil:
		return fmt.Errorf("userAdapter dependency not set")
	case m.tasks == nil:
		return fmt.Errorf("taskAdapter dependency not set")
	case m.activity == nil:
		return fmt.Errorf("activityAdapter dependency not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	// Wait briefly to catch immediate startup errors (port in use, permission denied)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.cfg.Addr)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	m.logger.Info("HTTP server stopped")
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.Addr,
		},
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Task API",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	origins := m.cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	if m.cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        m.cfg.RateLimitMax,
			Expiration: m.cfg.RateLimitWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "Too many requests"})
			},
		}))
	}

	m.registerRoutes(app)
	return app
}
