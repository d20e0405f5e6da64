package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// Database (waits until reachable)
	if err := database.Connect(ctx, cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		return err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		slog.Error("media storage init failed", "backend", cfg.StorageBackend, "error", err)
		return err
	}

	plugins := newPlugins(store)
	if err := migrateAll(database.DB, plugins); err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}

	// ERROR+ records are also persisted to system_logs in batches
	var dbLogHandler *logging.DBHandler
	if cfg.DBLogSink {
		dbLogHandler = logging.NewDBHandler(database.DB, 5*time.Second)
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			logging.NewStdoutHandler(logging.ParseLevel(cfg.LogLevel)),
			dbLogHandler,
		)))
	}

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Services
	tokens := cache.NewTokenCache(cfg)
	userService := services.NewUserService(database.DB, tokens)
	authService := services.NewAuthService(database.DB, tokens)

	// Handlers
	userHandler := handlers.NewUserHandler(userService, authService)
	healthHandler := handlers.NewHealthHandler(cfg.StorageBackend)
	adminHandler := handlers.NewAdminHandler(userService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, database.DB, authService, userHandler, healthHandler, adminHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "storage", cfg.StorageBackend)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-quit:
		slog.Info("shutting down server...")
	case err = <-listenErr:
		slog.Error("server failed to start", "error", err)
	}

	close(cleanupDone)
	if shutdownErr := app.Shutdown(); shutdownErr != nil {
		slog.Error("server shutdown error", "error", shutdownErr)
	}
	if dbLogHandler != nil {
		dbLogHandler.Stop()
	}
	if closeErr := database.Close(); closeErr != nil {
		slog.Error("database close error", "error", closeErr)
	}

	slog.Info("server stopped")
	return err
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
