package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-api/config"
	"github.com/example/task-api/modules/activity"
	"github.com/example/task-api/modules/api"
	"github.com/example/task-api/modules/cache"
	"github.com/example/task-api/modules/database"
	"github.com/example/task-api/modules/task"
	"github.com/example/task-api/modules/user"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("=== Task API ===")
	log.Printf("Database: %s", describeDatabase(cfg))
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	if cfg.CacheEnabled() {
		log.Printf("Redis: %s (prefix %q, TTL %s)", cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
	} else {
		log.Println("Redis: disabled")
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	db, err := database.Open(database.Config{
		Driver: cfg.DBDriver,
		Path:   cfg.DBPath,
		URL:    cfg.DatabaseURL,
		Debug:  cfg.DBDebug,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create modules
	databaseModule := database.NewModule(db, cfg.DBDriver, logger.WithModule("database"))
	userModule := user.NewModule(db, logger.WithModule("user"))
	taskModule := task.NewModule(db, logger.WithModule("task"))
	activityModule := activity.NewModule(activity.DefaultCapacity, logger.WithModule("activity"))

	checks := []api.HealthChecker{databaseModule}
	var cacheModule *cache.Module
	if cfg.CacheEnabled() {
		cacheModule = cache.NewModule(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL, logger.WithModule("cache"))
		checks = append(checks, cacheModule)
	}

	apiModule := api.NewModule(api.Config{
		Addr:            cfg.Addr(),
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	}, logger.WithModule("api"), checks...)

	// Register modules with the framework.
	// Order: infrastructure first, then core domain, then driving adapters
	// - database/cache: storage infrastructure
	// - user: Core domain (user storage, emits UserCreated)
	// - activity: Event consumer (records user and task events)
	// - task: Core domain (depends on user, emits task events)
	// - api: Driving adapter (Fiber HTTP server)
	app.Register(databaseModule)
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(userModule)
	app.Register(activityModule)
	app.Register(taskModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wire up dependencies after start
	if cacheModule != nil {
		userModule.SetCache(cacheModule.Cache())
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func describeDatabase(cfg config.Config) string {
	if cfg.DBDriver == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite " + cfg.DBPath
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("API available at http://localhost:%d (also under /api)", cfg.HTTPPort)
	log.Println("Endpoints:")
	log.Println("  GET    /health     - Health check")
	log.Println("  GET    /users      - List users (?page=&limit=)")
	log.Println("  POST   /users      - Create user")
	log.Println("  GET    /users/:id  - Get user")
	log.Println("  GET    /tasks      - List tasks (?page=&limit=&userId=)")
	log.Println("  POST   /tasks      - Create task")
	log.Println("  GET    /tasks/:id  - Get task")
	log.Println("  PUT    /tasks/:id  - Update task")
	log.Println("  DELETE /tasks/:id  - Delete task")
	log.Println("  GET    /activity   - Recent activity (?limit=)")
	if cfg.RateLimitMax > 0 {
		log.Printf("Rate limit: %d requests per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")
}
