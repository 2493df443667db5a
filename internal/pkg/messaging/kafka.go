package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	ErrKafkaGroupRequired   = errors.New("messaging: kafka consumer group is required")
)

type KafkaConfig struct {
	Brokers []string
	// Dialer carries TLS and SASL settings for both readers and the writer.
	Dialer       *kafka.Dialer
	WriteTimeout time.Duration
}

// Kafka shares one writer across topics. Each Consume call owns a reader and
// commits offsets on Ack, so a nacked event comes back after a rebalance.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer
	writer  *kafka.Writer

	mu      sync.Mutex
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
	}
	if cfg.Dialer != nil {
		w.Transport = &kafka.Transport{
			Dial:     cfg.Dialer.DialFunc,
			ClientID: cfg.Dialer.ClientID,
			TLS:      cfg.Dialer.TLS,
			SASL:     cfg.Dialer.SASLMechanism,
		}
	}

	return &Kafka{
		brokers: append([]string{}, cfg.Brokers...),
		dialer:  cfg.Dialer,
		writer:  w,
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	var closeErr error
	for r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	return errors.Join(closeErr, k.writer.Close())
}

// Publish hashes Key to pick the partition, so events for one user stay ordered.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	if k.isClosed() {
		return io.ErrClosedPipe
	}

	kmsg := kafka.Message{
		Topic: destination,
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
		Headers: lo.FilterMap(msg.Headers, func(h Header, _ int) (kafka.Header, bool) {
			return kafka.Header{Key: h.Key, Value: h.Value}, h.Key != ""
		}),
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

// Consume reads source as member of the WithGroup consumer group and blocks
// until ctx is done, fetching fails or an offset commit fails.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})
	if err := k.track(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer k.untrack(reader)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fetched := make(chan kafka.Message)
	fetchDone := make(chan error, 1)
	go func() {
		defer close(fetched)
		fetchDone <- fetchInto(loopCtx, reader, fetched)
	}()

	next := func() (Message, bool) {
		m, ok := <-fetched
		return &kafkaMessage{reader: reader, msg: m}, ok
	}
	workerErr := serve(co.concurrency, next, func(msg Message) error {
		if err := dispatch(ctx, DriverKafka, handler, msg, co.autoAck); err != nil {
			cancel()
			return err
		}
		return nil
	})
	cancel()
	// drain so the fetcher can observe the cancellation
	for range fetched {
	}
	fetchErr := <-fetchDone

	closeErr := reader.Close()
	switch {
	case workerErr != nil:
		return errors.Join(fmt.Errorf("messaging: kafka consume: %w", workerErr), closeErr)
	case ctx.Err() != nil:
		return errors.Join(ctx.Err(), closeErr)
	default:
		return errors.Join(fmt.Errorf("messaging: kafka consume: %w", fetchErr), closeErr)
	}
}

func fetchInto(ctx context.Context, reader *kafka.Reader, out chan<- kafka.Message) error {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (k *Kafka) isClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers[r] = struct{}{}
	return nil
}

func (k *Kafka) untrack(r *kafka.Reader) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.readers, r)
}

type kafkaMessage struct {
	reader    *kafka.Reader
	msg       kafka.Message
	settled atomic.Bool
}

func (m *kafkaMessage) Body() []byte   { return m.msg.Value }
func (m *kafkaMessage) Key() []byte    { return m.msg.Key }
func (m *kafkaMessage) Source() string { return m.msg.Topic }

func (m *kafkaMessage) Headers() []Header {
	return lo.Map(m.msg.Headers, func(h kafka.Header, _ int) Header { return Header{Key: h.Key, Value: h.Value} })
}

func (m *kafkaMessage) Ack(ctx context.Context) error {
	if m.settled.Swap(true) {
		return nil
	}
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted; the message is redelivered after a rebalance or restart.
func (m *kafkaMessage) Nack(context.Context) error {
	m.settled.Store(true)
	return nil
}
