package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

const (
	msgValidation   = "Validation error occurred."
	msgUnauthorized = "Unauthorized access."
	msgServer       = "Server error"
)

// StatusOf maps a service error kind onto an HTTP status.
func StatusOf(k services.Kind) int {
	switch k {
	case services.KindValidation, services.KindResourceLimit:
		return fiber.StatusBadRequest
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as the standard envelope.
// Internal causes are logged and never written to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return utils.Error(c, fe.Code, fe.Message, nil)
	}

	svcErr := services.AsError(err)
	code := StatusOf(svcErr.Kind)

	switch svcErr.Kind {
	case services.KindValidation:
		return utils.Error(c, code, msgValidation, utils.ErrorDetails{Field: svcErr.Field, Message: svcErr.Message})
	case services.KindUnauthorized, services.KindForbidden:
		return utils.Error(c, code, msgUnauthorized, svcErr.Message)
	case services.KindNotFound:
		return utils.Error(c, code, svcErr.Message, nil)
	case services.KindResourceLimit:
		var details interface{}
		if svcErr.Field != "" {
			details = utils.ErrorDetails{Field: svcErr.Field, Message: svcErr.Message}
		}
		return utils.Error(c, code, svcErr.Message, details)
	default:
		slog.Error("request failed",
			"requestId", c.Locals(requestid.ConfigDefault.ContextKey),
			"method", c.Method(), "path", c.Path(), "error", err)
		msg := svcErr.Message
		if msg == "" {
			msg = msgServer
		}
		return utils.Error(c, code, msg, nil)
	}
}
