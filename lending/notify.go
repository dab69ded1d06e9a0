package lending

import "context"

// Notifier delivers an email. Booking operations never depend on it
// succeeding.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
