package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/workpulse/workpulse/internal/pkg/clock"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/idempotency"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/mail"
	"github.com/workpulse/workpulse/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail    repoMail
	idempotency idempotency.Idempotency
	validator   validator.Validator
	cfg         config.Config
	clock       clock.Clocker
	ins         instrument.Instrumentation

	noticesSent    metric.Int64Counter
	noticesSkipped metric.Int64Counter
}

type Dependency struct {
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		cfg:         dep.Config,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}

	meter := s.ins.Meter("notification.usecase")
	var err error
	if s.noticesSent, err = meter.Int64Counter("notification.notice.sent", metric.WithDescription("Security notices emailed")); err != nil {
		slog.Error("failed to create notice sent counter", "error", err)
	}
	if s.noticesSkipped, err = meter.Int64Counter("notification.notice.duplicate", metric.WithDescription("Redelivered events skipped")); err != nil {
		slog.Error("failed to create notice duplicate counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) lockDuration() time.Duration {
	if d := s.cfg.GetSecond("modules.notification.lock_seconds"); d > 0 {
		return d
	}
	return time.Minute
}
