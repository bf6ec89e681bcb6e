package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/middleware"
	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

func (h *Handler) CreateTrainer(c *fiber.Ctx) error {
	var in services.TrainerInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	trainer, err := h.Accounts.CreateTrainer(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Trainer created successfully", fiber.Map{"trainer": trainer})
}

func (h *Handler) ListTrainers(c *fiber.Ctx) error {
	trainers, err := h.Accounts.ListTrainers(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Trainers retrieved successfully", trainers)
}

func (h *Handler) GetTrainer(c *fiber.Ctx) error {
	trainer, err := h.Accounts.GetTrainer(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Trainer retrieved successfully", trainer)
}

func (h *Handler) UpdateTrainer(c *fiber.Ctx) error {
	var in services.ProfileUpdate
	if err := parseBody(c, &in); err != nil {
		return err
	}
	trainer, err := h.Accounts.UpdateTrainer(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Trainer updated successfully", trainer)
}

func (h *Handler) DeleteTrainer(c *fiber.Ctx) error {
	if err := h.Accounts.DeleteTrainer(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id")); err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Trainer deleted successfully", nil)
}
