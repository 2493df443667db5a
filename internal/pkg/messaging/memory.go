package messaging

import (
	"context"
	"io"
	"slices"
	"sync"
)

// Memory is an in-process bus. Every Consume call on a source receives every
// message published to it after the call started; there is no persistence.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
	done   chan struct{}
}

// NewMemory constructs an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		subs: map[string][]*memorySub{},
		done: make(chan struct{}),
	}
}

// Close stops all consumers.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// Publish fans the message out to current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return io.ErrClosedPipe
	}

	msg.Body = slices.Clone(msg.Body)
	msg.Key = slices.Clone(msg.Key)
	msg.Headers = slices.Clone(msg.Headers)

	for _, sub := range m.subs[destination] {
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return io.ErrClosedPipe
		}
	}
	return nil
}

// Consume delivers messages for source until ctx is done or the bus is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	sub := &memorySub{ch: make(chan OutgoingMessage, 64), done: ctx.Done()}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], sub)
	m.mu.Unlock()

	defer m.remove(source, sub)

	next := func() (Message, bool) {
		select {
		case <-ctx.Done():
			return nil, false
		case <-m.done:
			return nil, false
		case out := <-sub.ch:
			return &memoryMessage{source: source, msg: out}, true
		}
	}
	_ = serve(co.concurrency, next, func(msg Message) error {
		_ = dispatch(ctx, DriverMemory, handler, msg, co.autoAck)
		return nil
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

func (m *Memory) remove(source string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[source] = slices.DeleteFunc(m.subs[source], func(s *memorySub) bool { return s == sub })
	if len(m.subs[source]) == 0 {
		delete(m.subs, source)
	}
}

type memorySub struct {
	ch   chan OutgoingMessage
	done <-chan struct{}
}

type memoryMessage struct {
	source string
	msg    OutgoingMessage
}

func (m *memoryMessage) Body() []byte               { return m.msg.Body }
func (m *memoryMessage) Key() []byte                { return m.msg.Key }
func (m *memoryMessage) Headers() []Header          { return m.msg.Headers }
func (m *memoryMessage) Source() string             { return m.source }
func (m *memoryMessage) Ack(context.Context) error  { return nil }
func (m *memoryMessage) Nack(context.Context) error { return nil }
