package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail that only writes the envelope to the structured log.
// It is meant for local development where no SMTP relay is reachable.
type Log struct{}

// NewLog returns a log-only Mail.
func NewLog() *Log {
	return &Log{}
}

// Send logs the recipients and subject. The body is never logged since it may carry codes.
func (*Log) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.recipients()) == 0 {
		return ErrSMTPNoRecipients
	}

	slog.InfoContext(ctx, "mail dispatched to log driver", "to", msg.To, "subject", msg.Subject, "html_bytes", len(msg.HTMLBody))
	return nil
}

func (*Log) Close() error { return nil }
