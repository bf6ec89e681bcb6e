package controllers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/middleware"
	"github.com/meinhoongagan/gym-booking/services"
	"github.com/meinhoongagan/gym-booking/utils"
)

func (h *Handler) CreateSchedule(c *fiber.Ctx) error {
	var in services.ScheduleInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	s, err := h.Allocator.CreateSchedule(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Class schedule created successfully", s)
}

func (h *Handler) UpdateSchedule(c *fiber.Ctx) error {
	var in services.ScheduleInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	s, err := h.Allocator.UpdateSchedule(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Class schedule updated successfully", s)
}

// DeleteSchedule removes the schedule, then detaches it from enrolled users. A failed
// detach is journaled by the coordinator and does not undo the delete.
func (h *Handler) DeleteSchedule(c *fiber.Ctx) error {
	deleted, err := h.Allocator.DeleteSchedule(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.Coordinator.ReleaseSchedule(c.UserContext(), deleted); err != nil {
		slog.Error("schedule deleted but participants not detached", "scheduleId", deleted.ID, "error", err)
	}
	return utils.Success(c, fiber.StatusOK, "Class schedule deleted successfully", nil)
}

func (h *Handler) ListTrainerSchedules(c *fiber.Ctx) error {
	schedules, err := h.Allocator.ListTrainerSchedules(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Class schedules retrieved successfully", schedules)
}

func (h *Handler) ListAllSchedules(c *fiber.Ctx) error {
	schedules, err := h.Allocator.ListAllSchedules(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Schedules retrieved successfully", schedules)
}

func (h *Handler) GetSchedule(c *fiber.Ctx) error {
	s, err := h.Allocator.GetSchedule(c.UserContext(), middleware.CurrentIdentity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Class schedule retrieved successfully", s)
}
