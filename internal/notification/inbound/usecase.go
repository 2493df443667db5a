package inbound

import (
	"context"

	"github.com/workpulse/workpulse/internal/notification/usecase"
)

type uc interface {
	ConsumePasswordReset(ctx context.Context, in usecase.ConsumePasswordEventInput) error
	ConsumePasswordChanged(ctx context.Context, in usecase.ConsumePasswordEventInput) error
}
