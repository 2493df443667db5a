// Package messaging publishes and consumes the WorkPulse domain events.
// Usecases see Publisher and Consumer only; NewFromDriver picks NATS, Kafka
// or the in-process bus from configuration.
package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	ErrDestinationRequired = errors.New("messaging: destination is required")
	ErrHandlerRequired     = errors.New("messaging: handler is required")
)

type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

// Consumer blocks in Consume until ctx is done or the subscription fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. Under auto-ack a nil error acks and any
// other result, a panic included, nacks.
type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	Body []byte
	// Key picks the Kafka partition. Other drivers ignore it.
	Key     []byte
	Headers []Header
}

type Header struct {
	Key   string
	Value []byte
}

type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	Source() string
	Ack(ctx context.Context) error
	// Nack asks for redelivery where the broker supports it.
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value stored under key, or "".
func HeaderValue(msg Message, key string) string {
	for _, h := range msg.Headers() {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
