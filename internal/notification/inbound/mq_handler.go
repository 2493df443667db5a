package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/workpulse/workpulse/internal/notification/usecase"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) PasswordResetNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordResetNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: password reset notification", "msg_body", string(body))

	var payload event.PasswordResetMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password reset notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordReset(ctx, usecase.ConsumePasswordEventInput{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		Email:      payload.Email,
		Username:   payload.Username,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password reset", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PasswordChangedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordChangedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: password changed notification", "msg_body", string(body))

	var payload event.PasswordChangedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password changed notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumePasswordChanged(ctx, usecase.ConsumePasswordEventInput{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		Email:      payload.Email,
		Username:   payload.Username,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password changed", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
