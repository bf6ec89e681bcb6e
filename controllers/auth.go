package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/middleware"
	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

// Register creates a trainee account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.Accounts.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Trainee created successfully", res)
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.Accounts.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Login successful", res)
}

// Logout drops the server-side identity cache entry.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.Accounts.Logout(c.UserContext(), middleware.CurrentIdentity(c))
	return utils.Success(c, fiber.StatusOK, "Logged out successfully", nil)
}
