package identity

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/workpulse/workpulse/internal/identity/inbound"
	"github.com/workpulse/workpulse/internal/identity/outbound/db"
	"github.com/workpulse/workpulse/internal/identity/outbound/mq"
	"github.com/workpulse/workpulse/internal/identity/outbound/otpstore"
	"github.com/workpulse/workpulse/internal/identity/usecase"
	"github.com/workpulse/workpulse/internal/pkg/authz"
	"github.com/workpulse/workpulse/internal/pkg/clock"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/goroutine"
	"github.com/workpulse/workpulse/internal/pkg/hash"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/jwt"
	"github.com/workpulse/workpulse/internal/pkg/mail"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"github.com/workpulse/workpulse/internal/pkg/router"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      // required when the otp store driver is redis
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   authz.Enforcer             `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, err := newOTPStore(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoOTP:       store,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Mail:          dep.Mail,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		UID:           dep.UID,
		OTP:           dep.OTP,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newOTPStore(dep Dependency) (otpstore.Store, error) {
	driver := dep.Config.GetString("modules.identity.otp.store")

	store, err := otpstore.New(driver, dep.Clock, otpstore.Options{
		Redis: otpstore.RedisOptions{
			Client: dep.CacheConn,
			Prefix: dep.Config.GetString("modules.identity.otp.redis_prefix"),
		},
	})
	if err != nil {
		return nil, err
	}

	if mem, ok := store.(*otpstore.Memory); ok {
		interval := dep.Config.GetSecond("modules.identity.otp.sweep_interval_seconds")
		dep.Goroutine.Go(dep.Ctx, "otpstore.janitor", func(ctx context.Context) error {
			return mem.RunJanitor(ctx, interval)
		})
	}

	slog.Info("identity otp store ready", "driver", driver)

	return store, nil
}
