package apps

import (
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin defines the interface every domain module must implement.
type Plugin interface {
	// ID returns the module identifier. It is also the route prefix under /api.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts module routes on the given Fiber group.
	// The group is already prefixed with /api/<ID> and requires a valid token.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
