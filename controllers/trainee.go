package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/middleware"
	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

type enrollRequest struct {
	ScheduleID string `json:"scheduleId"`
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	var in enrollRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.Coordinator.Enroll(c.UserContext(), middleware.CurrentIdentity(c), in.ScheduleID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Successfully enrolled in the schedule", res)
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	if err := h.Coordinator.Withdraw(c.UserContext(), middleware.CurrentIdentity(c), c.Params("scheduleId")); err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Successfully withdrawn from the schedule", nil)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	p, err := h.Accounts.Profile(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Profile retrieved successfully", p)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileUpdate
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.Accounts.UpdateProfile(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Profile updated successfully", p)
}

// UploadProfilePicture expects a multipart field named profile_picture.
func (h *Handler) UploadProfilePicture(c *fiber.Ctx) error {
	file, err := c.FormFile("profile_picture")
	if err != nil {
		return services.ValidationError("profile_picture", "Failed to get profile picture")
	}
	f, err := file.Open()
	if err != nil {
		return services.ServerError("open profile picture", err)
	}
	defer f.Close()

	p, err := h.Accounts.UploadPicture(c.UserContext(), middleware.CurrentIdentity(c), f)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Profile picture updated successfully", p)
}

// DeleteProfile removes the caller's own account, releasing every seat first.
func (h *Handler) DeleteProfile(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)
	if err := h.Coordinator.DeleteAccount(c.UserContext(), id, id.UserID.String()); err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Account deleted successfully", nil)
}
