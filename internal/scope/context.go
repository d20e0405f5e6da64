package scope

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userKey = "user"

var ErrNoUser = errors.New("no authenticated user in context")

// SetUser stores the authenticated user in Fiber context locals.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userKey, user)
}

// GetUser returns the authenticated user set by the token middleware.
func GetUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(userKey).(*models.User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// GetUserID extracts the authenticated user's UUID from context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	user, err := GetUser(c)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
