package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/workpulse/workpulse/internal/identity/usecase"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPasswordReset(ctx context.Context, msg usecase.PasswordResetEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishPasswordReset")
	defer span.End()

	return m.publish(ctx, span, event.PasswordResetDestination, msg.EventID, msg.Email, event.PasswordResetMessage{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		Email:      msg.Email,
		Username:   msg.Username,
		OccurredAt: msg.At.Unix(),
	})
}

func (m *Messaging) PublishPasswordChanged(ctx context.Context, msg usecase.PasswordChangedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishPasswordChanged")
	defer span.End()

	return m.publish(ctx, span, event.PasswordChangedDestination, msg.EventID, msg.Email, event.PasswordChangedMessage{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		Email:      msg.Email,
		Username:   msg.Username,
		OccurredAt: msg.At.Unix(),
	})
}

// publish keys the message by email so events of one user stay ordered on Kafka.
func (m *Messaging) publish(ctx context.Context, span trace.Span, dest string, eventID int64, email string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, dest, messaging.OutgoingMessage{
		Body: body,
		Key:  []byte(email),
		Headers: []messaging.Header{
			{Key: event.HeaderCorrelationID, Value: []byte(cID)},
			{Key: event.HeaderEventID, Value: []byte(strconv.FormatInt(eventID, 10))},
		},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
