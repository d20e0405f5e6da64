package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	storageBackend string
}

func NewHealthHandler(storageBackend string) *HealthHandler {
	return &HealthHandler{storageBackend: storageBackend}
}

// Check answers 503 while the database is unreachable so orchestrators can hold traffic.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Storage:   h.storageBackend,
	}
	if err := database.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.DB = "unhealthy: " + err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
