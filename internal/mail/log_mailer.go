package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of sending it. Used when no SMTP
// relay is configured, typically local development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	m.logger.InfoContext(ctx, "password reset mail (log only)",
		"to", to,
		"reset_url", resetURL,
	)
	return nil
}
