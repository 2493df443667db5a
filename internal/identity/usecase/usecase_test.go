package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	"github.com/workpulse/workpulse/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

const testConfig = `
modules:
  identity:
    otp:
      ttl_seconds: 300
      cooldown_seconds: 30
      session_ttl_seconds: 600
`

type fakeCodes struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeCodes) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(f.codes) == 0 {
		return "000000", nil
	}
	c := f.codes[0]
	f.codes = f.codes[1:]
	return c, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) Close() error { return nil }

func (f *fakeMail) last() mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeDB struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	err     error
	updated map[int64]string
}

func (f *fakeDB) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) UpdateUserPassword(_ context.Context, id int64, h string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[int64]string{}
	}
	f.updated[id] = h
	for _, u := range f.users {
		if u.ID == id {
			u.Password = h
		}
	}
	return nil
}

type fakeMessaging struct {
	mu      sync.Mutex
	resets  []PasswordResetEvent
	changes []PasswordChangedEvent
	err     error
}

func (f *fakeMessaging) PublishPasswordReset(_ context.Context, msg PasswordResetEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, msg)
	return f.err
}

func (f *fakeMessaging) PublishPasswordChanged(_ context.Context, msg PasswordChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, msg)
	return f.err
}

type fakeJWT struct{}

func (fakeJWT) Generate(uid int64, email, role string) (string, error) {
	return "token-" + role + "-" + email, nil
}

func (fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, errors.New("unused") }

type fakeUID struct {
	mu sync.Mutex
	n  int64
}

func (f *fakeUID) Generate() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return f.n
}

type harness struct {
	uc    *Usecase
	clock *clock.Manual
	codes *fakeCodes
	mail  *fakeMail
	db    *fakeDB
	mq    *fakeMessaging
	store *otpstore.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	enforcer, err := authz.NewEnforcer([]string{"admin:password:reset"})
	require.NoError(t, err)

	bc := hash.NewBcrypt(bcrypt.MinCost, "")
	adminHash, err := bc.Hash("admin-pass")
	require.NoError(t, err)
	employeeHash, err := bc.Hash("employee-pass")
	require.NoError(t, err)

	h := &harness{
		clock: clock.NewManual(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)),
		codes: &fakeCodes{},
		mail:  &fakeMail{},
		mq:    &fakeMessaging{},
		db: &fakeDB{users: map[string]*entity.User{
			"admin@workpulse.io":    {ID: 1, Username: "Ada", Email: "admin@workpulse.io", Password: string(adminHash), Role: entity.RoleAdmin, Active: true},
			"employee@workpulse.io": {ID: 2, Username: "Eve", Email: "employee@workpulse.io", Password: string(employeeHash), Role: entity.RoleEmployee, Active: true},
		}},
	}
	h.store = otpstore.NewMemory(h.clock)

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoOTP:       h.store,
		RepoMessaging: h.mq,
		Mail:          h.mail,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-secret"),
		Bcrypt:        bc,
		UID:           &fakeUID{},
		OTP:           h.codes,
		Clock:         h.clock,
		JWT:           fakeJWT{},
		Instrument:    instrument.NewNoop(),
		Enforcer:      enforcer,
	})

	return h
}

func (h *harness) generate(t *testing.T, email, code string) error {
	t.Helper()
	h.codes.codes = append(h.codes.codes, code)
	return h.uc.OTPGenerate(context.Background(), OTPGenerateInput{Email: email, Name: "Ada", Reason: entity.OTPReasonForgotPassword})
}

func (h *harness) verify(email, code string) error {
	return h.uc.OTPVerify(context.Background(), OTPVerifyInput{Email: email, Code: code})
}

func (h *harness) consume(email string) error {
	return h.uc.ResetSessionConsume(context.Background(), ResetSessionConsumeInput{Email: email})
}

func requireCode(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
	if msg != "" {
		assert.Equal(t, msg, gerr.Msg())
	}
}
