package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
)

// compensationTimeout bounds repair writes, which run detached from the request
// context so a cancelled request still releases its seat.
const compensationTimeout = 5 * time.Second

// EnrollmentResult confirms a booking.
type EnrollmentResult struct {
	ScheduleID uuid.UUID `json:"scheduleId"`
	ClassName  string    `json:"className"`
	Date       string    `json:"date"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
}

// Coordinator owns the two-sided enrollment relation between Schedule.Participants
// and User.EnrolledSchedules. Nothing else writes either side.
//
// The schedule side is always written first with a single conditional update, which
// is the only place seat capacity is enforced. The user side follows; when it fails
// the seat is released again, and a failed release is journaled for the cron replay.
type Coordinator struct {
	store  store.Store
	mailer Mailer
	cache  IdentityCache
	log    *slog.Logger
}

func NewCoordinator(st store.Store, mailer Mailer, cache IdentityCache) *Coordinator {
	return &Coordinator{
		store:  st,
		mailer: orNop(mailer),
		cache:  orNopCache(cache),
		log:    slog.Default().With("component", "enrollment"),
	}
}

func parseScheduleID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, ValidationError("scheduleId", MsgScheduleIDRequired)
	}
	return parseID(raw, "scheduleId", MsgInvalidScheduleID)
}

func (c *Coordinator) Enroll(ctx context.Context, id Identity, scheduleID string) (*EnrollmentResult, error) {
	sid, err := parseScheduleID(scheduleID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(id, ActionEnroll, Owned(id.UserID)); err != nil {
		return nil, err
	}

	s, err := c.store.AddParticipant(ctx, sid, id.UserID)
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, LimitExceeded("schedule", MsgNotAvailable)
	}
	if err != nil {
		return nil, ServerError("reserve seat", err)
	}

	if err := c.store.AddEnrolledSchedule(ctx, id.UserID, sid); err != nil {
		c.releaseSeat(ctx, sid, id.UserID, "enroll: user update failed")
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFound(MsgUserNotFound)
		}
		return nil, ServerError("record enrollment", err)
	}

	result := &EnrollmentResult{
		ScheduleID: s.ID,
		ClassName:  s.ClassName,
		Date:       s.DateString(),
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
	}
	c.log.Info("trainee enrolled",
		"scheduleId", sid, "userId", id.UserID, "participants", s.CurrentParticipants, "max", s.MaxParticipants)

	c.confirm(ctx, id.Email, result)
	return result, nil
}

// confirm sends the booking email; delivery failures never fail the enrollment.
func (c *Coordinator) confirm(ctx context.Context, to string, r *EnrollmentResult) {
	if to == "" {
		return
	}
	subject, body := confirmationEmail(r)
	if err := c.mailer.Send(ctx, to, subject, body); err != nil {
		c.log.Warn("confirmation email failed", "to", to, "scheduleId", r.ScheduleID, "error", err)
	}
}

func (c *Coordinator) Withdraw(ctx context.Context, id Identity, scheduleID string) error {
	sid, err := parseScheduleID(scheduleID)
	if err != nil {
		return err
	}
	if err := Authorize(id, ActionWithdraw, Owned(id.UserID)); err != nil {
		return err
	}

	released, err := c.store.RemoveParticipant(ctx, sid, id.UserID)
	if err != nil {
		return ServerError("release seat", err)
	}
	if !released {
		return ValidationError("schedule", MsgNotEnrolled)
	}

	if err := c.store.RemoveEnrolledSchedule(ctx, id.UserID, sid); err != nil && !errors.Is(err, store.ErrNotFound) {
		c.journal(ctx, models.CompensationDetachSchedule, sid, id.UserID, "withdraw: user update failed", err)
	}

	c.log.Info("trainee withdrew", "scheduleId", sid, "userId", id.UserID)
	return nil
}

// DeleteAccount releases every seat the user holds and removes the account.
// Schedules that are gone or no longer list the user are skipped.
func (c *Coordinator) DeleteAccount(ctx context.Context, id Identity, userID string) error {
	uid, err := parseID(userID, "id", "Invalid user ID format")
	if err != nil {
		return err
	}
	if err := Authorize(id, ActionDeleteAccount, Owned(uid)); err != nil {
		return err
	}

	user, err := c.store.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound(MsgUserNotFound)
	}
	if err != nil {
		return ServerError("load user", err)
	}

	for _, raw := range user.EnrolledSchedules {
		sid, err := uuid.Parse(raw)
		if err != nil {
			c.log.Warn("skipping malformed enrolled schedule id", "userId", uid, "value", raw)
			continue
		}
		if _, err := c.store.RemoveParticipant(ctx, sid, uid); err != nil {
			c.journal(ctx, models.CompensationReleaseSeat, sid, uid, "delete account: release failed", err)
		}
	}

	// Catch seats whose reverse reference was lost.
	if n, err := c.store.RemoveParticipantEverywhere(ctx, uid); err != nil {
		c.log.Warn("participant sweep failed", "userId", uid, "error", err)
	} else if n > 0 {
		c.log.Info("released stray seats", "userId", uid, "count", n)
	}

	if err := c.store.DeleteUser(ctx, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(MsgUserNotFound)
		}
		return ServerError("delete user", err)
	}
	c.cache.Evict(ctx, uid)

	c.log.Info("account deleted", "userId", uid, "by", id.UserID, "schedules", len(user.EnrolledSchedules))
	return nil
}

// ReleaseSchedule detaches a deleted schedule from every user that was enrolled in it.
func (c *Coordinator) ReleaseSchedule(ctx context.Context, s *models.Schedule) error {
	n, err := c.store.DetachScheduleFromUsers(ctx, s.ID)
	if err == nil {
		c.log.Info("schedule detached from users", "scheduleId", s.ID, "users", n)
		return nil
	}

	var failed int
	for _, raw := range s.Participants {
		uid, perr := uuid.Parse(raw)
		if perr != nil {
			continue
		}
		if !c.journal(ctx, models.CompensationDetachSchedule, s.ID, uid, "schedule deleted", err) {
			failed++
		}
	}
	if failed > 0 {
		return ServerError("detach schedule", err)
	}
	return nil
}

// RetryCompensations replays up to limit journaled repairs and reports how many
// were resolved. Each replay is idempotent and first checks that the repair is
// still wanted.
func (c *Coordinator) RetryCompensations(ctx context.Context, limit int) (int, error) {
	pending, err := c.store.PendingCompensations(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load pending compensations: %w", err)
	}

	resolved := 0
	for i := range pending {
		comp := &pending[i]
		if err := c.replay(ctx, comp); err != nil {
			c.log.Warn("compensation replay failed",
				"compensationId", comp.ID, "kind", comp.Kind, "attempts", comp.Attempts+1, "error", err)
			if ferr := c.store.FailCompensation(ctx, comp.ID, err.Error()); ferr != nil {
				c.log.Error("could not record compensation failure", "compensationId", comp.ID, "error", ferr)
			}
			continue
		}
		if err := c.store.ResolveCompensation(ctx, comp.ID); err != nil {
			c.log.Error("could not resolve compensation", "compensationId", comp.ID, "error", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (c *Coordinator) replay(ctx context.Context, comp *models.Compensation) error {
	switch comp.Kind {
	case models.CompensationReleaseSeat:
		// A later successful enrollment owns the seat now.
		user, err := c.store.GetUser(ctx, comp.UserID)
		if err == nil && user.IsEnrolled(comp.ScheduleID) {
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		_, err = c.store.RemoveParticipant(ctx, comp.ScheduleID, comp.UserID)
		return err

	case models.CompensationDetachSchedule:
		s, err := c.store.GetSchedule(ctx, comp.ScheduleID)
		if err == nil && s.HasParticipant(comp.UserID) {
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		err = c.store.RemoveEnrolledSchedule(ctx, comp.UserID, comp.ScheduleID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown compensation kind %q", comp.Kind)
	}
}

// releaseSeat undoes a reservation after the user side failed.
func (c *Coordinator) releaseSeat(ctx context.Context, scheduleID, userID uuid.UUID, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if _, err := c.store.RemoveParticipant(cctx, scheduleID, userID); err != nil {
		c.journal(cctx, models.CompensationReleaseSeat, scheduleID, userID, reason, err)
		return
	}
	c.log.Warn("enrollment rolled back", "scheduleId", scheduleID, "userId", userID, "reason", reason)
}

// journal records a repair for the cron replay and reports whether it was stored.
func (c *Coordinator) journal(ctx context.Context, kind models.CompensationKind, scheduleID, userID uuid.UUID, reason string, cause error) bool {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	comp := &models.Compensation{
		Kind:       kind,
		ScheduleID: scheduleID,
		UserID:     userID,
		LastError:  cause.Error(),
		Detail:     datatypes.JSONMap{"reason": reason},
	}
	if err := c.store.RecordCompensation(cctx, comp); err != nil {
		c.log.Error("compensation lost",
			"kind", kind, "scheduleId", scheduleID, "userId", userID, "cause", cause, "error", err)
		return false
	}
	c.log.Warn("compensation journaled",
		"compensationId", comp.ID, "kind", kind, "scheduleId", scheduleID, "userId", userID, "cause", cause)
	return true
}
