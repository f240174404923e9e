// Package mailer delivers magic-link and password-reset mail. The SMTP
// implementation covers production; the log implementation covers
// development, where the emailed URL is needed on the console anyway.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer delivers mail through an SMTP relay with STARTTLS-capable auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTP creates an SMTP-backed mailer.
func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes outgoing mail to the application log instead of sending
// it. Used in development when no SMTP relay is configured.
type LogMailer struct{}

// NewLog creates a log-only mailer.
func NewLog() *LogMailer {
	return &LogMailer{}
}

// Send logs the message it would have sent.
func (m *LogMailer) Send(to, subject, body string) error {
	slog.Info("outgoing mail (log-only mailer)", "to", to, "subject", subject, "body", body)
	return nil
}
