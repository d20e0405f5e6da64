package middleware

import (
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/scope"
	"github.com/gofiber/fiber/v2"
)

// StaffRequired must run after TokenProtected.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := scope.GetUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !user.IsStaff && !user.IsSuperuser {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
