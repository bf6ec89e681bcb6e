package utils

import "github.com/gofiber/fiber/v2"

// Response is the envelope every endpoint answers with.
type Response struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	StatusCode   int         `json:"statusCode,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	ErrorDetails interface{} `json:"errorDetails,omitempty"`
}

// ErrorDetails scopes a failure to one input field.
type ErrorDetails struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Success writes a success envelope with the given status.
func Success(c *fiber.Ctx, code int, message string, data interface{}) error {
	return c.Status(code).JSON(Response{
		Success:    true,
		Message:    message,
		StatusCode: code,
		Data:       data,
	})
}

// Error writes a failure envelope; details may be nil, a string or ErrorDetails.
func Error(c *fiber.Ctx, code int, message string, details interface{}) error {
	return c.Status(code).JSON(Response{
		Success:      false,
		Message:      message,
		StatusCode:   code,
		ErrorDetails: details,
	})
}
