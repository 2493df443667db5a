// Package mail sends the WorkPulse OTP and account notices. Callers depend on
// the Mail interface; the app picks the SMTP or log driver from config and
// wraps it with Retrying.
package mail

import (
	"context"
	"io"

	"github.com/samber/lo"
)

// Message is one outgoing email. From may be empty when the driver has a default sender.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// recipients is the SMTP envelope: every To, Cc and Bcc address, deduplicated.
func (m Message) recipients() []string {
	return lo.Uniq(lo.Compact(lo.Flatten([][]string{m.To, m.Cc, m.Bcc})))
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
