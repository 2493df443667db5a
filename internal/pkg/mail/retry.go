package mail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying decorates a Mail and retries transient send failures with
// exponential backoff. Configuration errors (no sender, no recipients) are
// returned immediately.
type Retrying struct {
	next     Mail
	attempts uint64
	base     time.Duration
}

// NewRetrying wraps next. attempts is the number of retries after the first
// try; base is the first backoff step.
func NewRetrying(next Mail, attempts uint64, base time.Duration) *Retrying {
	if base <= 0 {
		base = 200 * time.Millisecond
	}

	return &Retrying{next: next, attempts: attempts, base: base}
}

// Send delivers msg, retrying transient failures until the budget or ctx runs out.
func (r *Retrying) Send(ctx context.Context, msg Message) error {
	backoff := retry.WithMaxRetries(r.attempts, retry.NewExponential(r.base))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}

		slog.WarnContext(ctx, "mail send failed, will retry", "attempt", attempt, "subject", msg.Subject, "error", err)
		return retry.RetryableError(err)
	})
}

// Close closes the wrapped Mail.
func (r *Retrying) Close() error {
	return r.next.Close()
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrSMTPNoRecipients) ||
		errors.Is(err, ErrSMTPNoSender) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
