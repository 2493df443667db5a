package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var errCooldown = errors.New("identity: otp cooldown active")

type OTPGenerateInput struct {
	Email  string           `validate:"required,email"`
	Name   string           `validate:"max=100"`
	Reason entity.OTPReason `validate:"max=32"`
}

// OTPGenerate issues a new code for the flow of in.Email and emails it.
// The code is committed before the email is sent; a failed send leaves it valid.
func (s *Usecase) OTPGenerate(ctx context.Context, in OTPGenerateInput) error {
	ctx, span := s.startSpan(ctx, "OTPGenerate")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key, err := s.flowKey(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive otp flow key", "error", err)
		return goerror.NewServer(err)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(otp.CanonicalString(code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	ttl, cooldown := s.otpTTL(), s.otpCooldown()

	err = s.repoOTP.Update(ctx, key, func(rec *entity.OTPRecord) error {
		if !rec.CanIssue(now) {
			return errCooldown
		}
		rec.Issue(string(codeHash), in.Reason, now, ttl, cooldown)
		return nil
	})
	if errors.Is(err, errCooldown) {
		add(ctx, s.otpRateLimited)
		slog.WarnContext(ctx, "otp requested during cooldown", "email", in.Email)
		return goerror.NewBusiness("Please wait before requesting another OTP", goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update otp record", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	add(ctx, s.otpIssued, metric.WithAttributes(attribute.Bool("forgot_password", in.Reason.IsForgotPassword())))

	msg, err := otpMail(in.Email, in.Name, code, in.Reason)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "error", err)
		return goerror.NewUpstream(err, "Failed to send OTP email")
	}

	return nil
}
