package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	AccessToken string
	User        entity.User
}

func (s *Usecase) AdminLogin(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminLogin")
	defer span.End()

	return s.login(ctx, in, entity.RoleAdmin)
}

func (s *Usecase) EmployeeLogin(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "EmployeeLogin")
	defer span.End()

	return s.login(ctx, in, entity.RoleEmployee)
}

func (s *Usecase) login(ctx context.Context, in LoginInput, role entity.Role) (*LoginOutput, error) {
	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.Role != role {
		slog.WarnContext(ctx, "login with wrong role", "user_id", user.ID, "role", user.Role.String(), "want", role.String())
		if role == entity.RoleAdmin {
			return nil, goerror.NewBusiness("You are not an admin login as an employee", goerror.CodeForbidden)
		}
		return nil, goerror.NewBusiness("You are not an employee login as an admin", goerror.CodeForbidden)
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("Incorrect password", goerror.CodeForbidden)
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.Role.String())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{AccessToken: token, User: *user}, nil
}
