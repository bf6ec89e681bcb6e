package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meinhoongagan/gym-booking/services"
)

const (
	compensationBatch = 50
	reminderLead      = 60 * time.Minute
	reminderWidth     = 5 * time.Minute
	jobTimeout        = time.Minute
)

// Start registers the background jobs and starts the scheduler. The caller stops it
// with Stop on shutdown; ctx is the parent of every job run.
func Start(ctx context.Context, coord *services.Coordinator, hk *services.Housekeeper) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"compensations", "* * * * *", func(ctx context.Context) error {
			n, err := coord.RetryCompensations(ctx, compensationBatch)
			if n > 0 {
				slog.Info("compensations replayed", "resolved", n)
			}
			return err
		}},
		{"complete-elapsed", "*/5 * * * *", func(ctx context.Context) error {
			_, err := hk.CompleteElapsed(ctx)
			return err
		}},
		{"reminders", "*/5 * * * *", func(ctx context.Context) error {
			_, err := hk.SendReminders(ctx, reminderLead, reminderWidth)
			return err
		}},
	}

	for _, j := range jobs {
		j := j
		_, err := c.AddFunc(j.spec, func() {
			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := j.run(runCtx); err != nil {
				slog.Error("cron job failed", "job", j.name, "error", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("add cron job %s: %w", j.name, err)
		}
	}

	c.Start()
	slog.Info("cron scheduler started", "jobs", len(jobs))
	return c, nil
}
