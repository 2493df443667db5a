package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

const (
	policyObjectPassword = "password"
	policyActionReset    = "reset"
)

type PasswordResetWithSessionInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
}

// PasswordResetWithSession sets a new password for an admin whose flow holds
// a reset session. The session is consumed only when the reset goes ahead.
func (s *Usecase) PasswordResetWithSession(ctx context.Context, in PasswordResetWithSessionInput) error {
	ctx, span := s.startSpan(ctx, "PasswordResetWithSession")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ok, err := s.hasSession(ctx, in.Email)
	if err != nil {
		return err
	}
	if !ok {
		return goerror.NewBusiness("Session expired", goerror.CodeSessionExpired)
	}

	user, err := s.repoDB.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset for unknown user", "email", in.Email)
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	allowed, err := s.enforcer.Enforce(user.Role.String(), policyObjectPassword, policyActionReset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "password reset refused for role", "user_id", user.ID, "role", user.Role.String())
		return goerror.NewBusiness("You are not an admin login as an admin", goerror.CodeForbidden)
	}

	newHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	// a concurrent consume may have taken the grant since the check above
	ok, err = s.consumeSession(ctx, in.Email)
	if err != nil {
		return err
	}
	if !ok {
		return goerror.NewBusiness("Session expired", goerror.CodeSessionExpired)
	}

	if err := s.repoDB.UpdateUserPassword(ctx, user.ID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishPasswordReset(ctx, PasswordResetEvent{
		EventID:  s.uid.Generate(),
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		At:       s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish password reset", "user_id", user.ID, "error", err)
	}

	return nil
}
