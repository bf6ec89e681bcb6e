package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meinhoongagan/gym-booking/models"
)

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// nopMailer stands in when SMTP is not configured.
type nopMailer struct{}

func (nopMailer) Send(_ context.Context, to, subject, _ string) error {
	slog.Debug("mail disabled, dropping message", "to", to, "subject", subject)
	return nil
}

func orNop(m Mailer) Mailer {
	if m == nil {
		return nopMailer{}
	}
	return m
}

func confirmationEmail(r *EnrollmentResult) (string, string) {
	subject := fmt.Sprintf("Booking confirmed: %s on %s", r.ClassName, r.Date)
	body := fmt.Sprintf(`
		<p>Hello,</p>
		<p>You are booked into <strong>%s</strong>.</p>
		<ul>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
		<p>If you can no longer attend, please withdraw so someone else can take the spot.</p>
	`, r.ClassName, r.Date, r.StartTime, r.EndTime)
	return subject, body
}

func reminderEmail(u *models.User, s *models.Schedule) (string, string) {
	subject := fmt.Sprintf("Reminder: %s starts at %s", s.ClassName, s.StartTime)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder that your class starts in about an hour.</p>
		<ul>
			<li><strong>Class:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s - %s</li>
		</ul>
		<p>Please arrive on time.</p>
	`, u.Name, s.ClassName, s.DateString(), s.StartTime, s.EndTime)
	return subject, body
}
