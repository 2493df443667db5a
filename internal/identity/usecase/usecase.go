package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/identity/outbound/otpstore"
	"github.com/workpulse/workpulse/internal/pkg/authz"
	"github.com/workpulse/workpulse/internal/pkg/clock"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/hash"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/jwt"
	"github.com/workpulse/workpulse/internal/pkg/mail"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL        = 5 * time.Minute
	defaultOTPCooldown   = 30 * time.Second
	defaultOTPSessionTTL = 10 * time.Minute
)

type PasswordResetEvent struct {
	EventID  int64
	UserID   int64
	Email    string
	Username string
	At       time.Time
}

type PasswordChangedEvent struct {
	EventID  int64
	UserID   int64
	Email    string
	Username string
	At       time.Time
}

type repoMessaging interface {
	PublishPasswordReset(ctx context.Context, msg PasswordResetEvent) error
	PublishPasswordChanged(ctx context.Context, msg PasswordChangedEvent) error
}

type repoDB interface {
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateUserPassword(ctx context.Context, id int64, hash string) error
}

type Usecase struct {
	repoDB        repoDB
	repoOTP       otpstore.Store
	repoMessaging repoMessaging
	mail          mail.Mail
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	uid           uid.NumberID
	otp           otp.Generator
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      authz.Enforcer

	otpIssued      metric.Int64Counter
	otpVerified    metric.Int64Counter
	otpRateLimited metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoOTP       otpstore.Store
	RepoMessaging repoMessaging
	Mail          mail.Mail
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UID           uid.NumberID
	OTP           otp.Generator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Enforcer      authz.Enforcer
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoOTP:       dep.RepoOTP,
		repoMessaging: dep.RepoMessaging,
		mail:          dep.Mail,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uid:           dep.UID,
		otp:           dep.OTP,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}

	meter := s.ins.Meter("identity.usecase")
	var err error
	if s.otpIssued, err = meter.Int64Counter("identity.otp.issued", metric.WithDescription("OTP codes issued")); err != nil {
		slog.Error("failed to create otp issued counter", "error", err)
	}
	if s.otpVerified, err = meter.Int64Counter("identity.otp.verified", metric.WithDescription("OTP verification attempts by result")); err != nil {
		slog.Error("failed to create otp verified counter", "error", err)
	}
	if s.otpRateLimited, err = meter.Int64Counter("identity.otp.rate_limited", metric.WithDescription("OTP generations refused by cooldown")); err != nil {
		slog.Error("failed to create otp rate limited counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// flowKey derives the OTP store key from a normalized email.
func (s *Usecase) flowKey(email string) (string, error) {
	h, err := s.hmac.Hash(email)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *Usecase) otpTTL() time.Duration {
	return durationOr(s.cfg.GetSecond("modules.identity.otp.ttl_seconds"), defaultOTPTTL)
}

func (s *Usecase) otpCooldown() time.Duration {
	return durationOr(s.cfg.GetSecond("modules.identity.otp.cooldown_seconds"), defaultOTPCooldown)
}

func (s *Usecase) otpSessionTTL() time.Duration {
	return durationOr(s.cfg.GetSecond("modules.identity.otp.session_ttl_seconds"), defaultOTPSessionTTL)
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func add(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}
