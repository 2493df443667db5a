package usecase

import (
	"context"
	"log/slog"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

type ResetSessionConsumeInput struct {
	Email string `validate:"required,email"`
}

// ResetSessionConsume takes the reset-session grant of the flow. It succeeds
// at most once per successful verification.
func (s *Usecase) ResetSessionConsume(ctx context.Context, in ResetSessionConsumeInput) error {
	ctx, span := s.startSpan(ctx, "ResetSessionConsume")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ok, err := s.consumeSession(ctx, in.Email)
	if err != nil {
		return err
	}
	if !ok {
		return goerror.NewBusiness("Session expired", goerror.CodeBadRequest)
	}

	return nil
}

func (s *Usecase) consumeSession(ctx context.Context, email string) (bool, error) {
	key, err := s.flowKey(email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive otp flow key", "error", err)
		return false, goerror.NewServer(err)
	}

	now := s.clock.Now()

	var granted bool
	if err := s.repoOTP.Update(ctx, key, func(rec *entity.OTPRecord) error {
		granted = rec.ConsumeSession(now)
		return nil
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update otp record", "email", email, "error", err)
		return false, goerror.NewServer(err)
	}

	return granted, nil
}

func (s *Usecase) hasSession(ctx context.Context, email string) (bool, error) {
	key, err := s.flowKey(email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive otp flow key", "error", err)
		return false, goerror.NewServer(err)
	}

	now := s.clock.Now()

	var granted bool
	if err := s.repoOTP.Update(ctx, key, func(rec *entity.OTPRecord) error {
		granted = rec.HasSession(now)
		return nil
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo read otp record", "email", email, "error", err)
		return false, goerror.NewServer(err)
	}

	return granted, nil
}
