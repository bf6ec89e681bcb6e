package utils

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/meinhoongagan/gym-booking/config"
)

// Mailer sends HTML mail over SMTP.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewMailer returns nil when SMTP is not configured; callers treat nil as "mail off".
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		from:   cfg.User,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

// Send opens one SMTP session per message. ctx is only checked before dialing
// because gomail has no cancellation hook.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}
