package controllers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/store"
	"github.com/meinhoongagan/gym-booking/utils"
)

// Handler wires HTTP routes to the services. Handlers return service errors as-is;
// middleware.ErrorHandler renders them.
type Handler struct {
	Accounts    *services.Accounts
	Allocator   *services.Allocator
	Coordinator *services.Coordinator
	Store       store.Store
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		slog.Debug("cannot parse request body", "path", c.Path(), "error", err)
		return services.ValidationError("body", "Cannot parse JSON")
	}
	return nil
}

// Health reports whether the store answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.Store.Ping(c.UserContext()); err != nil {
		slog.Error("health check failed", "error", err)
		return utils.Error(c, fiber.StatusServiceUnavailable, "unavailable", nil)
	}
	return c.SendString("ok")
}
