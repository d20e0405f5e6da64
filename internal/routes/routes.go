package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authService *services.AuthService,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
	plugins []apps.Plugin,
) {
	// Uploaded images are served from disk only for the local backend
	if cfg.StorageBackend == config.StorageLocal && cfg.MediaURLPrefix != "" {
		app.Static(cfg.MediaURLPrefix, cfg.MediaRoot, fiber.Static{Browse: false})
	}

	api := app.Group("/api")
	if cfg.RateLimitPerMinute > 0 {
		api.Use(perIPLimiter(cfg.RateLimitPerMinute))
	}

	api.Get("/health", healthHandler.Check)

	// Public account endpoints with a stricter limit
	users := api.Group("/users")
	authLimited := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.AuthRateLimitPerMinute > 0 {
		authLimited = perIPLimiter(cfg.AuthRateLimitPerMinute)
	}
	users.Post("/create", authLimited, userHandler.Create)
	users.Post("/token", authLimited, userHandler.Token)

	protected := middleware.TokenProtected(authService)
	users.Get("/me", protected, userHandler.Me)
	users.Patch("/me", protected, userHandler.UpdateMe)
	users.Put("/me", protected, handlers.MethodNotAllowed)
	users.Post("/me", protected, handlers.MethodNotAllowed)
	users.Delete("/me", protected, handlers.MethodNotAllowed)

	admin := api.Group("/admin", protected, middleware.StaffRequired())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/active", adminHandler.SetActive)

	// Each plugin gets /api/<id>, token required
	for _, p := range plugins {
		p.RegisterRoutes(api.Group("/"+p.ID(), protected), db, cfg)
	}
}

func perIPLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
