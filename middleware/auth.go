package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

const identityKey = "identity"

// IdentityResolver turns a verified token subject into a live identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (services.Identity, error)
}

// Protected verifies the bearer token and stores the caller's identity in locals.
// The role is re-read through the resolver, so deleted accounts and role changes
// apply without waiting for the token to expire.
func Protected(secret string, resolver IdentityResolver) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return services.Unauthorized("No authentication token")
			}

			userID, err := utils.SubjectFromClaims(token)
			if err != nil {
				slog.Debug("rejecting token", "error", err)
				return services.Unauthorized("Invalid token")
			}

			id, err := resolver.ResolveIdentity(c.UserContext(), userID)
			if err != nil {
				return err
			}

			c.Locals(identityKey, id)
			return c.Next()
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	slog.Debug("jwt rejected", "path", c.Path(), "error", err)
	return services.Unauthorized("Invalid or expired token")
}

// CurrentIdentity returns the identity stored by Protected, or the zero identity.
func CurrentIdentity(c *fiber.Ctx) services.Identity {
	id, _ := c.Locals(identityKey).(services.Identity)
	return id
}
