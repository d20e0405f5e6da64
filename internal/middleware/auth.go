package middleware

import (
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/scope"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// TokenProtected resolves "Authorization: Token <key>" (or Bearer) to the owning user.
func TokenProtected(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Authentication credentials were not provided",
			})
		}

		user, err := auth.Authenticate(c.UserContext(), key)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrInactiveUser) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: err.Error(),
				})
			}
			return err
		}

		scope.SetUser(c, user)
		return c.Next()
	}
}

func tokenFromHeader(header string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, " ") {
		return "", false
	}
	return key, true
}
