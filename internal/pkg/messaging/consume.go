package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/workpulse/workpulse/internal/pkg/stacktrace"
)

type consumeOptions struct {
	concurrency int
	autoAck     bool
	group       string // Kafka consumer group, NATS queue fallback
	queueGroup  string
}

type ConsumeOption func(*consumeOptions)

// WithConcurrency sets the number of handler goroutines. Values below 1 mean 1.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithGroup names the Kafka consumer group. NATS uses it as the queue group
// unless WithQueueGroup is also given.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	co.concurrency = max(co.concurrency, 1)
	return co
}

func (o consumeOptions) natsQueue() string {
	if o.queueGroup != "" {
		return o.queueGroup
	}
	return o.group
}

func validateConsume(ctx context.Context, source string, handler Handler) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case source == "":
		return ErrDestinationRequired
	case handler == nil:
		return ErrHandlerRequired
	}
	return nil
}

// serve runs n workers that pull from next until it reports false. A worker
// stops at the first error handle returns; serve joins those errors.
func serve(n int, next func() (Message, bool), handle func(Message) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range n {
		wg.Go(func() {
			for {
				msg, ok := next()
				if !ok {
					return
				}
				if err := handle(msg); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					return
				}
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// dispatch runs handler, turning a panic into an error, and settles the
// message when autoAck is set. The returned error is the ack or nack failure.
func dispatch(ctx context.Context, driver string, handler Handler, msg Message, autoAck bool) error {
	herr := invoke(ctx, driver, handler, msg)
	switch {
	case !autoAck:
		return nil
	case herr != nil:
		return msg.Nack(ctx)
	default:
		return msg.Ack(ctx)
	}
}

func invoke(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		var trace any = string(stack)
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			trace = paths
		}
		slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "source", msg.Source(), "panic", rvr, "stack", trace)
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return handler(ctx, msg)
}
