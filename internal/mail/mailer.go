package mail

import "context"

// Mailer delivers transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, resetURL string) error
}
