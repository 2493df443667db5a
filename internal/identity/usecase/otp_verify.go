package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type OTPVerifyInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,otpcode"`
}

// OTPVerify compares in.Code with the outstanding code by numeric value and,
// on a match, clears the code and grants a reset session.
func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) error {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key, err := s.flowKey(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive otp flow key", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	sessionTTL := s.otpSessionTTL()

	var verified bool
	err = s.repoOTP.Update(ctx, key, func(rec *entity.OTPRecord) error {
		verified = false
		if !rec.HasPendingCode(now) {
			return nil
		}
		if !s.hmac.Verify(rec.CodeHash, otp.CanonicalString(in.Code)) {
			return nil
		}

		rec.Grant(now, sessionTTL)
		verified = true
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update otp record", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	add(ctx, s.otpVerified, metric.WithAttributes(attribute.Bool("result", verified)))

	if !verified {
		slog.WarnContext(ctx, "otp verification failed", "email", in.Email)
		return goerror.NewBusiness("Wrong OTP", goerror.CodeForbidden)
	}

	return nil
}
