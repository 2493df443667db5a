package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"github.com/workpulse/workpulse/internal/identity/inbound"
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
	"github.com/workpulse/workpulse/internal/pkg/migration"
	"github.com/workpulse/workpulse/internal/pkg/otp"
	"github.com/workpulse/workpulse/internal/pkg/router"
	"github.com/workpulse/workpulse/internal/pkg/uid"
	"github.com/workpulse/workpulse/internal/pkg/validator"
)

var errUnknownMailDriver = errors.New("unknown mail driver")

func fatal(msg string, err error, attrs ...any) {
	slog.Error(msg, append([]any{"error", err}, attrs...)...)
	os.Exit(1)
}

// onClose registers fn to run on Stop. Closers run in reverse registration
// order, so resources created later are released first.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = slices.Insert(a.closers, 0, closer{name: name, fn: fn})
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			fatal("failed to load app.tz", err, "tz", tz)
		}
		time.Local = loc
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}
	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))
	a.otp = otp.NewHOTP(libOTP.DigitsSix)

	validator, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", err)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		fatal("failed to init snowflake", err)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     a.config.GetString("jwt.issuer"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTL:        a.config.GetMinute("jwt.ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	})
	if err != nil {
		fatal("failed to init jwt", err)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	dsn := a.config.GetString("database.url")

	if a.config.GetBool("database.migrate") {
		if err := migration.Run(dsn, "up"); err != nil {
			fatal("failed to migrate DB", err)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		fatal("failed to parse database url", err)
	}

	poolCfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	poolCfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	poolCfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	poolCfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	poolCfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		fatal("failed to create DB connection pool", err)
	}

	// the database may still be starting when the service boots
	backoff := retry.WithMaxRetries(uint64(max(a.config.GetInt("database.ping_retries"), 0)), retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(a.ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("DB is not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		fatal("failed to ping DB", err)
	}

	a.dbConn = pool
	a.onClose("database", func(context.Context) error { pool.Close(); return nil })
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		fatal("failed to init redis", err)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb)
	a.onClose("redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) initMail() {
	var client mail.Mail

	switch driver := strings.TrimSpace(a.config.GetString("mail.driver")); driver {
	case "log":
		client = mail.NewLog()
	case "smtp", "":
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     a.config.GetString("mail.host"),
			Port:     a.config.GetInt("mail.port"),
			Username: a.config.GetString("mail.username"),
			Password: a.config.GetString("mail.password"),
			From:     a.config.GetString("mail.from"),
		})
		if err != nil {
			fatal("failed to init mail", err)
		}
		client = smtp
	default:
		fatal("failed to init mail", errUnknownMailDriver, "driver", driver)
	}

	a.mail = mail.NewRetrying(client,
		uint64(max(a.config.GetInt("mail.retry.attempts"), 0)),
		a.config.GetSecond("mail.retry.base_seconds"),
	)
	a.onClose("mail", func(context.Context) error { return a.mail.Close() })
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
			WriteTimeout: a.config.GetSecond("messaging.kafka.write_timeout_seconds"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
}

func (a *App) initAuthz() {
	e, err := authz.NewEnforcer(a.config.GetArray("modules.identity.roles.policies"))
	if err != nil {
		fatal("failed to init authz enforcer", err)
	}

	a.enforcer = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:          a.config,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		PublicEndpoints: inbound.PublicEndpoints(),
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
