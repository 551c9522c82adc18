package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer sends mail over a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, to string, resetURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password recovery")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your password reset link is:\n\n%s\n\nIf you did not request this, please ignore this email.", resetURL))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send password reset to %s: %w", to, err)
	}

	return nil
}
