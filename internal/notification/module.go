package notification

import (
	"context"
	"log/slog"

	"github.com/workpulse/workpulse/internal/notification/inbound"
	"github.com/workpulse/workpulse/internal/notification/outbound/email"
	"github.com/workpulse/workpulse/internal/notification/usecase"
	"github.com/workpulse/workpulse/internal/pkg/clock"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/goroutine"
	"github.com/workpulse/workpulse/internal/pkg/idempotency"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/mail"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context            `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoMail:    email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Instrument),
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	n := inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	slog.Info("notification consumers started", "count", n)

	return nil
}
