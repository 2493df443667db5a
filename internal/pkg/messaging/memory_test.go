package messaging

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startConsumer(t *testing.T, m *Memory, ctx context.Context, source string, h Handler, opts ...ConsumeOption) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- m.Consume(ctx, source, h, opts...) }()

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.subs[source]) > 0
	}, time.Second, time.Millisecond)
	return done
}

func TestMemoryPublishConsume(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Message, 1)
	done := startConsumer(t, m, ctx, "identity.password", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	}, WithAutoAck(true))

	err := m.Publish(context.Background(), "identity.password", OutgoingMessage{
		Body:    []byte(`{"email":"a@x.com"}`),
		Key:     []byte("a@x.com"),
		Headers: []Header{{Key: "event_id", Value: []byte("42")}},
	})
	require.NoError(t, err)

	select {
	case msg := <-got:
		assert.Equal(t, `{"email":"a@x.com"}`, string(msg.Body()))
		assert.Equal(t, "a@x.com", string(msg.Key()))
		assert.Equal(t, "identity.password", msg.Source())
		assert.Equal(t, "42", HeaderValue(msg, "event_id"))
		assert.Empty(t, HeaderValue(msg, "missing"))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryPublishWithoutSubscribers(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish(context.Background(), "nobody", OutgoingMessage{Body: []byte("x")}))
	require.ErrorIs(t, m.Publish(context.Background(), "", OutgoingMessage{}), ErrDestinationRequired)
}

func TestMemoryHandlerPanicDoesNotStopConsumer(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	startConsumer(t, m, ctx, "topic", func(_ context.Context, msg Message) error {
		if string(msg.Body()) == "boom" {
			panic("boom")
		}
		got <- string(msg.Body())
		return errors.New("handler failed")
	}, WithAutoAck(true), WithConcurrency(2))

	require.NoError(t, m.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("boom")}))
	require.NoError(t, m.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("ok")}))

	select {
	case body := <-got:
		assert.Equal(t, "ok", body)
	case <-time.After(time.Second):
		t.Fatal("consumer stopped after panic")
	}
}

func TestMemoryClose(t *testing.T) {
	m := NewMemory()
	done := startConsumer(t, m, context.Background(), "topic", func(context.Context, Message) error { return nil })

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.ErrorIs(t, <-done, io.ErrClosedPipe)

	require.ErrorIs(t, m.Publish(context.Background(), "topic", OutgoingMessage{}), io.ErrClosedPipe)
	require.ErrorIs(t, m.Consume(context.Background(), "topic", func(context.Context, Message) error { return nil }), io.ErrClosedPipe)
}

func TestMemoryConsumeValidation(t *testing.T) {
	m := NewMemory()
	require.ErrorIs(t, m.Consume(context.Background(), "", func(context.Context, Message) error { return nil }), ErrDestinationRequired)
	require.ErrorIs(t, m.Consume(context.Background(), "topic", nil), ErrHandlerRequired)
}

func TestNewFromDriver(t *testing.T) {
	msg, err := NewFromDriver(DriverMemory, FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, msg)

	_, err = NewFromDriver("rabbit", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	require.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(DriverNATS, FactoryOptions{})
	require.ErrorIs(t, err, ErrNATSURLRequired)
}
