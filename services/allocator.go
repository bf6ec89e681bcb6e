package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
	"github.com/meinhoongagan/gym-booking/utils"
)

// ScheduleInput is the caller-supplied part of a schedule. Dates are "YYYY-MM-DD" or
// RFC3339, start times "HH:MM".
type ScheduleInput struct {
	TrainerID       string `json:"trainerId"`
	ClassName       string `json:"className"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	MaxParticipants *int   `json:"maxParticipants"`
}

// Allocator creates and edits class schedules, keeping each trainer free of
// overlapping classes and under the daily class cap.
//
// The overlap and daily-cap checks read before they write. Two concurrent requests for
// the same trainer can both pass them; schedule writes are rare and restricted to
// admins and trainers, so that window is accepted.
type Allocator struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

func NewAllocator(st store.Store, loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.UTC
	}
	return &Allocator{
		store: st,
		loc:   loc,
		now:   time.Now,
		log:   slog.Default().With("component", "allocator"),
	}
}

func parseID(raw, field, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ValidationError(field, message)
	}
	return id, nil
}

func (a *Allocator) CreateSchedule(ctx context.Context, id Identity, in ScheduleInput) (*models.Schedule, error) {
	if err := Authorize(id, ActionCreateSchedule, Resource{}); err != nil {
		return nil, err
	}

	slot, err := a.checkSlot(ctx, id, ActionCreateSchedule, in, nil)
	if err != nil {
		return nil, err
	}

	s := &models.Schedule{Status: models.StatusScheduled}
	slot.Apply(s)
	if err := a.store.CreateSchedule(ctx, s); err != nil {
		return nil, ServerError("create schedule", err)
	}

	a.log.Info("schedule created",
		"scheduleId", s.ID, "trainerId", s.TrainerID, "date", s.DateString(), "startTime", s.StartTime)
	return s, nil
}

func (a *Allocator) UpdateSchedule(ctx context.Context, id Identity, scheduleID string, in ScheduleInput) (*models.Schedule, error) {
	existing, err := a.load(ctx, id, ActionUpdateSchedule, scheduleID)
	if err != nil {
		return nil, err
	}

	slot, err := a.checkSlot(ctx, id, ActionUpdateSchedule, in, existing)
	if err != nil {
		return nil, err
	}

	updated, err := a.store.UpdateScheduleSlot(ctx, existing.ID, slot)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound(MsgScheduleNotFound)
	case errors.Is(err, store.ErrConditionFailed):
		return nil, ValidationError("maxParticipants", MsgBelowEnrolled)
	case err != nil:
		return nil, ServerError("update schedule", err)
	}

	a.log.Info("schedule updated", "scheduleId", updated.ID, "trainerId", updated.TrainerID)
	return updated, nil
}

// DeleteSchedule removes the schedule and returns it so the enrollment side can
// detach its participants.
func (a *Allocator) DeleteSchedule(ctx context.Context, id Identity, scheduleID string) (*models.Schedule, error) {
	existing, err := a.load(ctx, id, ActionDeleteSchedule, scheduleID)
	if err != nil {
		return nil, err
	}

	deleted, err := a.store.DeleteSchedule(ctx, existing.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(MsgScheduleNotFound)
	}
	if err != nil {
		return nil, ServerError("delete schedule", err)
	}

	a.log.Info("schedule deleted", "scheduleId", deleted.ID, "participants", deleted.CurrentParticipants)
	return deleted, nil
}

func (a *Allocator) ListTrainerSchedules(ctx context.Context, id Identity) ([]models.Schedule, error) {
	if err := Authorize(id, ActionListOwn, Owned(id.UserID)); err != nil {
		return nil, err
	}
	trainer := id.UserID
	schedules, err := a.store.ListSchedules(ctx, store.ScheduleFilter{TrainerID: &trainer})
	if err != nil {
		return nil, ServerError("list trainer schedules", err)
	}
	return schedules, nil
}

func (a *Allocator) ListAllSchedules(ctx context.Context, id Identity) ([]models.Schedule, error) {
	if err := Authorize(id, ActionListAll, Resource{}); err != nil {
		return nil, err
	}
	schedules, err := a.store.ListSchedules(ctx, store.ScheduleFilter{})
	if err != nil {
		return nil, ServerError("list schedules", err)
	}
	return schedules, nil
}

func (a *Allocator) GetSchedule(ctx context.Context, id Identity, scheduleID string) (*models.Schedule, error) {
	if err := Authorize(id, ActionViewSchedule, Resource{}); err != nil {
		return nil, err
	}
	sid, err := parseID(scheduleID, "id", MsgInvalidScheduleID)
	if err != nil {
		return nil, err
	}
	s, err := a.store.GetSchedule(ctx, sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(MsgScheduleNotFound)
	}
	if err != nil {
		return nil, ServerError("get schedule", err)
	}
	return s, nil
}

// load fetches a schedule for a write and checks the caller may touch it.
func (a *Allocator) load(ctx context.Context, id Identity, action Action, scheduleID string) (*models.Schedule, error) {
	if err := Authorize(id, action, Resource{}); err != nil {
		return nil, err
	}
	sid, err := parseID(scheduleID, "id", MsgInvalidScheduleID)
	if err != nil {
		return nil, err
	}
	existing, err := a.store.GetSchedule(ctx, sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(MsgScheduleNotFound)
	}
	if err != nil {
		return nil, ServerError("load schedule", err)
	}
	if err := Authorize(id, action, Owned(existing.TrainerID)); err != nil {
		return nil, err
	}
	return existing, nil
}

// checkSlot runs the create/update checks in order and stops at the first failure.
// self is the record being updated, nil on create.
func (a *Allocator) checkSlot(ctx context.Context, id Identity, action Action, in ScheduleInput, self *models.Schedule) (models.ScheduleSlot, error) {
	var slot models.ScheduleSlot

	in.TrainerID = strings.TrimSpace(in.TrainerID)
	in.ClassName = strings.TrimSpace(in.ClassName)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	if in.TrainerID == "" || in.ClassName == "" || in.Description == "" || in.Date == "" || in.StartTime == "" {
		return slot, ValidationError("schedule", MsgFieldsRequired)
	}

	trainerID, err := parseID(in.TrainerID, "trainerId", "Invalid trainer ID format")
	if err != nil {
		return slot, err
	}
	if err := Authorize(id, action, Owned(trainerID)); err != nil {
		return slot, err
	}

	date, err := utils.ParseDate(in.Date, a.loc)
	if err != nil {
		return slot, ValidationError("date", MsgInvalidDate)
	}
	if !utils.StartOfDay(date, a.loc).After(a.now()) {
		return slot, ValidationError("date", MsgDateInPast)
	}

	start, err := utils.NormalizeClock(in.StartTime)
	if err != nil {
		return slot, ValidationError("time", MsgInvalidTime)
	}

	capacity := models.DefaultMaxParticipants
	if self != nil {
		capacity = self.MaxParticipants
	}
	if in.MaxParticipants != nil {
		capacity = *in.MaxParticipants
	}
	if capacity < models.MinParticipants || capacity > models.MaxParticipants {
		return slot, ValidationError("maxParticipants", MsgMaxParticipants)
	}

	end, err := utils.AddClock(start, models.ClassDuration)
	if err != nil {
		return slot, ValidationError("time", MsgInvalidTime)
	}

	slot = models.ScheduleSlot{
		TrainerID:       trainerID,
		ClassName:       in.ClassName,
		Description:     in.Description,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		MaxParticipants: capacity,
	}

	if err := a.checkOverlap(ctx, slot, self); err != nil {
		return slot, err
	}

	count, err := a.store.CountSchedules(ctx, trainerID, date)
	if err != nil {
		return slot, ServerError("count schedules", err)
	}
	if count >= models.MaxSchedulesPerDay {
		return slot, LimitExceeded("schedule", MsgDailyLimit)
	}

	trainer, err := a.store.GetUser(ctx, trainerID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && trainer.Role != models.RoleTrainer) {
		return slot, ValidationError("trainerId", MsgTrainerNotFound)
	}
	if err != nil {
		return slot, ServerError("load trainer", err)
	}

	return slot, nil
}

// checkOverlap compares the slot against the trainer's other scheduled classes that day.
func (a *Allocator) checkOverlap(ctx context.Context, slot models.ScheduleSlot, self *models.Schedule) error {
	candidate, err := utils.NewInterval(slot.StartTime, slot.EndTime)
	if err != nil {
		return ValidationError("time", MsgInvalidTime)
	}

	trainer, date := slot.TrainerID, slot.Date
	sameDay, err := a.store.ListSchedules(ctx, store.ScheduleFilter{
		TrainerID: &trainer,
		Date:      &date,
		Status:    models.StatusScheduled,
	})
	if err != nil {
		return ServerError("list same-day schedules", err)
	}

	for _, other := range sameDay {
		if self != nil && other.ID == self.ID {
			continue
		}
		iv, err := utils.NewInterval(other.StartTime, other.EndTime)
		if err != nil {
			a.log.Warn("stored schedule has a malformed time range", "scheduleId", other.ID, "error", err)
			continue
		}
		if candidate.Overlaps(iv) {
			return ValidationError("schedule", MsgOverlap)
		}
	}
	return nil
}
