package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/samber/lo"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS runs on core NATS: delivery is at most once, so Ack and Nack are
// no-ops unless the subject is bound to JetStream.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   map[*nats.Subscription]struct{}
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn, subs: map[*nats.Subscription]struct{}{}}, nil
}

// Close unsubscribes every consumer, then drains and closes the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := lo.Keys(n.subs)
	n.subs = nil
	n.mu.Unlock()

	errs := lo.Map(subs, func(s *nats.Subscription, _ int) error { return unsubscribe(s) })
	errs = append(errs, n.conn.Drain())
	n.conn.Close()
	return errors.Join(errs...)
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	out := &nats.Msg{Subject: destination, Data: msg.Body, Header: nats.Header{}}
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume subscribes to source, in a queue group when one is configured,
// and blocks until ctx is done.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	inbox := make(chan *nats.Msg, 64*co.concurrency)
	sub, err := n.conn.ChanQueueSubscribe(source, co.natsQueue(), inbox)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}
	if err := n.track(sub); err != nil {
		return errors.Join(err, unsubscribe(sub))
	}
	defer n.untrack(sub)

	next := func() (Message, bool) {
		select {
		case <-ctx.Done():
			return nil, false
		case m := <-inbox:
			return &natsMessage{msg: m}, true
		}
	}
	_ = serve(co.concurrency, next, func(msg Message) error {
		if err := dispatch(ctx, DriverNATS, handler, msg, co.autoAck); err != nil {
			slog.WarnContext(ctx, "nats ack failed", "subject", source, "error", err)
		}
		return nil
	})

	return errors.Join(ctx.Err(), unsubscribe(sub))
}

func (n *NATS) track(sub *nats.Subscription) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.subs[sub] = struct{}{}
	return nil
}

func (n *NATS) untrack(sub *nats.Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, sub)
}

// unsubscribe ignores subscriptions already gone with the connection.
func unsubscribe(sub *nats.Subscription) error {
	err := sub.Unsubscribe()
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		return nil
	}
	return err
}

type natsMessage struct {
	msg     *nats.Msg
	settled atomic.Bool
}

func (m *natsMessage) Body() []byte   { return m.msg.Data }
func (m *natsMessage) Key() []byte    { return nil }
func (m *natsMessage) Source() string { return m.msg.Subject }

func (m *natsMessage) Headers() []Header {
	return lo.FlatMap(lo.Entries(m.msg.Header), func(e lo.Entry[string, []string], _ int) []Header {
		return lo.Map(e.Value, func(v string, _ int) Header { return Header{Key: e.Key, Value: []byte(v)} })
	})
}

func (m *natsMessage) Ack(ctx context.Context) error {
	return m.settle(ctx, m.msg.Ack)
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.settle(ctx, m.msg.Nak)
}

// settle responds once. Plain core NATS messages have no reply subject and
// report ErrMsgNoReply or ErrMsgNotBound, which is not a failure here.
func (m *natsMessage) settle(ctx context.Context, respond func(...nats.AckOpt) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.settled.Swap(true) {
		return nil
	}
	err := respond()
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
