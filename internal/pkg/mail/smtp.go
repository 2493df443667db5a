package mail

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("no recipients provided")
	ErrSMTPNoSender         = errors.New("no sender provided")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTP delivers over a fresh connection per message. STARTTLS is used when
// the relay offers it; PLAIN auth only when credentials are configured.
type SMTP struct {
	host string
	addr string
	from string
	auth smtp.Auth
	now  func() time.Time
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		host: cfg.Host,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		now:  time.Now,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpts := msg.recipients()
	if len(rcpts) == 0 {
		return ErrSMTPNoRecipients
	}
	from := lo.CoalesceOrEmpty(msg.From, s.from)
	if from == "" {
		return ErrSMTPNoSender
	}

	return s.deliver(ctx, from, rcpts, compose(from, msg, s.now()))
}

func (s *SMTP) deliver(ctx context.Context, from string, rcpts []string, raw []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range rcpts {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (*SMTP) Close() error { return nil }

// compose renders the RFC 5322 message. Bcc never appears in the headers.
func compose(from string, msg Message, now time.Time) []byte {
	body, contentType := buildBody(msg)

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", contentType)
	b.WriteString("\r\n")
	b.WriteString(body)

	return b.Bytes()
}

// buildBody returns the body and its Content-Type. With both parts set the
// message is multipart/alternative, plain text first.
func buildBody(msg Message) (string, string) {
	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := multipartBoundary()

		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		for _, part := range []struct{ typ, content string }{
			{"text/plain", msg.TextBody},
			{"text/html", msg.HTMLBody},
		} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part.typ, part.content)
		}
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), "multipart/alternative; boundary=" + boundary
	case msg.HTMLBody != "":
		return msg.HTMLBody, "text/html; charset=UTF-8"
	default:
		return msg.TextBody, "text/plain; charset=UTF-8"
	}
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "workpulse-boundary-fallback"
	}
	return "workpulse-boundary-" + hex.EncodeToString(b[:])
}
