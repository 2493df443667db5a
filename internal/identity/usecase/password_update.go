package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

type PasswordUpdateInput struct {
	OldPassword string `validate:"required"`
	Password    string `validate:"required,password"`
}

func (s *Usecase) PasswordUpdate(ctx context.Context, in PasswordUpdateInput) error {
	ctx, span := s.startSpan(ctx, "PasswordUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user not found", "user_id", clm.UserID)
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(user.Password, in.OldPassword) {
		slog.WarnContext(ctx, "old password not match", "user_id", user.ID)
		return goerror.NewBusiness("Incorrect password", goerror.CodeForbidden)
	}

	newHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserPassword(ctx, user.ID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishPasswordChanged(ctx, PasswordChangedEvent{
		EventID:  s.uid.Generate(),
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		At:       s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish password changed", "user_id", user.ID, "error", err)
	}

	return nil
}
