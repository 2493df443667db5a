package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

type UserLookupInput struct {
	Email string `validate:"required,email"`
}

type UserLookupOutput struct {
	Exists bool
}

// UserLookup is the pre-check of the forgot-password screen, which only
// admins may use.
func (s *Usecase) UserLookup(ctx context.Context, in UserLookupInput) (*UserLookupOutput, error) {
	ctx, span := s.startSpan(ctx, "UserLookup")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &UserLookupOutput{Exists: false}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch user.Role {
	case entity.RoleAdmin:
		return &UserLookupOutput{Exists: true}, nil
	case entity.RoleEmployee:
		return nil, goerror.NewBusiness("You are an employee login as an employee", goerror.CodeForbidden)
	default:
		return &UserLookupOutput{Exists: false}, nil
	}
}
