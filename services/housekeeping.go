package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
	"github.com/meinhoongagan/gym-booking/utils"
)

// reminderWorkers caps concurrent SMTP sessions per sweep.
const reminderWorkers = 4

// Housekeeper runs the periodic schedule maintenance driven by cron.
type Housekeeper struct {
	store  store.Store
	mailer Mailer
	loc    *time.Location
	now    func() time.Time
	log    *slog.Logger
}

func NewHousekeeper(st store.Store, mailer Mailer, loc *time.Location) *Housekeeper {
	if loc == nil {
		loc = time.UTC
	}
	return &Housekeeper{
		store:  st,
		mailer: orNop(mailer),
		loc:    loc,
		now:    time.Now,
		log:    slog.Default().With("component", "housekeeping"),
	}
}

// CompleteElapsed moves scheduled classes whose end has passed to completed.
func (h *Housekeeper) CompleteElapsed(ctx context.Context) (int64, error) {
	now := h.now()
	today := utils.DateOnly(utils.ToLocal(now, h.loc))

	candidates, err := h.store.ListSchedules(ctx, store.ScheduleFilter{
		To:     &today,
		Status: models.StatusScheduled,
	})
	if err != nil {
		return 0, fmt.Errorf("list elapsed candidates: %w", err)
	}

	var ids []uuid.UUID
	for i := range candidates {
		s := &candidates[i]
		_, end, err := utils.ClassWindow(s, h.loc)
		if err != nil {
			h.log.Warn("skipping schedule with malformed time range", "scheduleId", s.ID, "error", err)
			continue
		}
		if end.After(now) || s.CanTransitionTo(models.StatusCompleted) != nil {
			continue
		}
		ids = append(ids, s.ID)
	}

	n, err := h.store.TransitionSchedules(ctx, ids, models.StatusScheduled, models.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("complete schedules: %w", err)
	}
	if n > 0 {
		h.log.Info("schedules completed", "count", n)
	}
	return n, nil
}

// SendReminders emails participants of classes starting within [now+lead, now+lead+width).
// It returns the number of reminders delivered.
func (h *Housekeeper) SendReminders(ctx context.Context, lead, width time.Duration) (int, error) {
	now := h.now()
	from, to := now.Add(lead), now.Add(lead+width)
	fromDay := utils.DateOnly(utils.ToLocal(from, h.loc))
	toDay := utils.DateOnly(utils.ToLocal(to, h.loc))

	candidates, err := h.store.ListSchedules(ctx, store.ScheduleFilter{
		From:   &fromDay,
		To:     &toDay,
		Status: models.StatusScheduled,
	})
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	type delivery struct {
		schedule *models.Schedule
		userID   uuid.UUID
	}
	var queue []delivery
	for i := range candidates {
		s := &candidates[i]
		start, err := utils.Instant(s.Date, s.StartTime, h.loc)
		if err != nil || start.Before(from) || !start.Before(to) {
			continue
		}
		for _, raw := range s.Participants {
			if uid, err := uuid.Parse(raw); err == nil {
				queue = append(queue, delivery{schedule: s, userID: uid})
			}
		}
	}

	sent := make([]bool, len(queue))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reminderWorkers)
	for i, d := range queue {
		i, d := i, d
		g.Go(func() error {
			user, err := h.store.GetUser(gctx, d.userID)
			if err != nil {
				h.log.Warn("reminder skipped, user not loaded", "userId", d.userID, "error", err)
				return nil
			}
			subject, body := reminderEmail(user, d.schedule)
			if err := h.mailer.Send(gctx, user.Email, subject, body); err != nil {
				h.log.Warn("reminder email failed", "userId", d.userID, "scheduleId", d.schedule.ID, "error", err)
				return nil
			}
			sent[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	delivered := 0
	for _, ok := range sent {
		if ok {
			delivered++
		}
	}
	if len(queue) > 0 {
		h.log.Info("class reminders sent", "delivered", delivered, "queued", len(queue))
	}
	return delivered, nil
}
