package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/goroutine"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/shared/event"
)

// RegisterMQConsumer starts one consumer per enabled event on routine.
// An empty modules.notification.consumer_names enables all of them.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) int {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.PasswordResetConsumerNotification,
			topic:   event.PasswordResetDestination,
			handler: mqHandler.PasswordResetNotification,
		},
		{
			name:    event.PasswordChangedConsumerNotification,
			topic:   event.PasswordChangedDestination,
			handler: mqHandler.PasswordChangedNotification,
		},
	}

	started := 0
	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		ok := routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			err := messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithQueueGroup(consumer.name),
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		if ok {
			started++
		}
	}

	return started
}
