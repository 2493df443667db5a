package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/workpulse/workpulse/internal/pkg/authz"
	"github.com/workpulse/workpulse/internal/pkg/clock"
	"github.com/workpulse/workpulse/internal/pkg/config"
	"github.com/workpulse/workpulse/internal/pkg/goroutine"
	"github.com/workpulse/workpulse/internal/pkg/hash"
	"github.com/workpulse/workpulse/internal/pkg/idempotency"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"github.com/workpulse/workpulse/internal/pkg/jwt"
	"github.com/workpulse/workpulse/internal/pkg/mail"
	"github.com/workpulse/workpulse/internal/pkg/messaging"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"github.com/workpulse/workpulse/internal/pkg/router"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT
	enforcer  authz.Enforcer

	// resources
	dbConn    *pgxpool.Pool
	cacheConn redis.UniversalClient
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initAuthz()
	app.initHTTPServer()
	app.initModules()

	return app
}
