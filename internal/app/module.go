package app

import (
	"log/slog"
	"os"

	"github.com/workpulse/workpulse/internal/identity"
	"github.com/workpulse/workpulse/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Enforcer:   a.enforcer,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Bcrypt:     a.bcrypt,
			Clock:      a.clock,
			OTP:        a.otp,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
