package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/services"
)

// RequirePermission gates a route on the access policy at collection level.
// Ownership of the addressed record is checked again by the service.
func RequirePermission(action services.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.Authorize(CurrentIdentity(c), action, services.Resource{}); err != nil {
			return err
		}
		return c.Next()
	}
}
