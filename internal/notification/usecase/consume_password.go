package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/workpulse/workpulse/internal/notification/entity"
	"github.com/workpulse/workpulse/internal/pkg/idempotency"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type ConsumePasswordEventInput struct {
	EventID    int64  `validate:"required,gt=0"`
	UserID     int64  `validate:"required,gt=0"`
	Email      string `validate:"required,email"`
	Username   string `validate:"max=100"`
	OccurredAt int64
}

func (s *Usecase) ConsumePasswordReset(ctx context.Context, in ConsumePasswordEventInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordReset")
	defer span.End()

	return s.consume(ctx, in, entity.NoticeKindPasswordReset)
}

func (s *Usecase) ConsumePasswordChanged(ctx context.Context, in ConsumePasswordEventInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordChanged")
	defer span.End()

	return s.consume(ctx, in, entity.NoticeKindPasswordChanged)
}

// consume emails the notice at most once per event. A malformed event is
// dropped; a send failure is returned so the broker redelivers it.
func (s *Usecase) consume(ctx context.Context, in ConsumePasswordEventInput, kind entity.NoticeKind) error {
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "kind", kind.String(), "error", err)
		return nil
	}

	n := entity.Notice{
		EventID:    in.EventID,
		UserID:     in.UserID,
		Email:      in.Email,
		Username:   in.Username,
		Kind:       kind,
		OccurredAt: time.Unix(in.OccurredAt, 0).UTC(),
	}
	if in.OccurredAt == 0 {
		n.OccurredAt = s.clock.Now()
	}

	err := s.idempotency.Exec(ctx, n.IdempotencyKey(), func(ctx context.Context) error {
		msg, err := noticeMail(n)
		if err != nil {
			return err
		}
		return s.repoMail.Send(ctx, msg)
	}, idempotency.WithLockDuration(s.lockDuration()))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "notice already sent", "event_id", n.EventID, "kind", kind.String())
		add(ctx, s.noticesSkipped, kind)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send notice", "event_id", n.EventID, "user_id", n.UserID, "kind", kind.String(), "error", err)
		return err
	}

	add(ctx, s.noticesSent, kind)
	return nil
}

func add(ctx context.Context, c metric.Int64Counter, kind entity.NoticeKind) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
	}
}
