package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Tweltz1/Project-Tracking/internal/application/dto"
)

// Pinger verifica una dependencia.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func Health(store Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "degraded", Store: "unavailable"})
		}
		return c.JSON(dto.HealthResponse{Status: "ok", Store: "ok"})
	}
}
