// Package mailer implements SMTP delivery for transactional email.
package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/vetsimposio/backend/config"
)

// SMTPMailer sends HTML email through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates an SMTP mailer from config. Returns nil when no SMTP host is
// configured, which the dispatcher treats as "skip sending".
func New(cfg config.EmailConfig) *SMTPMailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
	}
}

// Send delivers one HTML message. Blocks until the relay accepts or rejects
// it; the caller bounds the wait.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
