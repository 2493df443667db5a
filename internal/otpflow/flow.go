package otpflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/workpulse/workpulse/internal/pkg/clock"
	"go.uber.org/atomic"
)

const (
	// CodeLength is the number of digits a code must have before it can be submitted.
	CodeLength = 6

	defaultCooldown = 60 * time.Second
	defaultTick     = time.Second
)

var (
	ErrClosed         = errors.New("otpflow: flow is closed")
	ErrStarted        = errors.New("otpflow: flow already started")
	ErrNotStarted     = errors.New("otpflow: flow not started")
	ErrBusy           = errors.New("otpflow: a request is already in flight")
	ErrIncomplete     = errors.New("otpflow: code must have 6 digits")
	ErrCooldownActive = errors.New("otpflow: resend is not available yet")
	ErrVerified       = errors.New("otpflow: already verified")
)

// Config configures a Flow. Email and Client are required.
type Config struct {
	Email  string
	Name   string
	Reason string

	Client   Client
	Notifier Notifier
	Clock    clock.Clocker

	// Cooldown is the resend countdown after a successful send. Defaults to 60s.
	Cooldown time.Duration
	// TickInterval is the period of OnTick. Defaults to 1s.
	TickInterval time.Duration

	// OnTick receives the state on every tick while the countdown runs.
	// It may call Resend but must not call Close or Submit.
	OnTick func(State)
	// OnVerified fires once, after a successful Submit.
	OnVerified func()
}

// State is a point-in-time view of a Flow.
type State struct {
	Code      string
	Error     string
	Sending   bool
	Verifying bool
	Verified  bool

	CooldownDeadline time.Time
	Remaining        time.Duration
	CanResend        bool
	CanSubmit        bool
}

// Flow is one OTP verification attempt. It is safe for concurrent use.
type Flow struct {
	cfg    Config
	closed *atomic.Bool

	mu        sync.Mutex
	ctx       context.Context
	code      string
	errMsg    string
	sending   bool
	verifying bool
	verified  bool
	deadline  time.Time

	tickCancel context.CancelFunc
	tickDone   chan struct{}
}

// New returns a Flow that has not sent anything yet.
func New(cfg Config) *Flow {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(error) {})
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTick
	}

	return &Flow{cfg: cfg, closed: atomic.NewBool(false)}
}

// Start sends the first code. It may be called once. The countdown and its
// ticker run until they reach zero, ctx is done or the flow is closed.
//
// A failed send leaves resend available immediately.
func (f *Flow) Start(ctx context.Context) error {
	if f.closed.Load() {
		return ErrClosed
	}

	f.mu.Lock()
	if f.ctx != nil {
		f.mu.Unlock()
		return ErrStarted
	}
	f.ctx = ctx
	f.sending = true
	f.mu.Unlock()

	return f.send(ctx)
}

// SetCode replaces the entered code with the digits of s, truncated to six.
func (f *Flow) SetCode(s string) {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == CodeLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	f.mu.Lock()
	f.code = b.String()
	f.mu.Unlock()
}

// CanSubmit reports whether Submit would send the code.
func (f *Flow) CanSubmit() bool {
	return f.Snapshot().CanSubmit
}

// Submit verifies the entered code.
//
// A server rejection becomes the inline error and a transport failure goes
// to the Notifier; both are also returned. Neither touches the countdown.
func (f *Flow) Submit(ctx context.Context) error {
	if f.closed.Load() {
		return ErrClosed
	}

	f.mu.Lock()
	switch {
	case f.ctx == nil:
		f.mu.Unlock()
		return ErrNotStarted
	case f.verified:
		f.mu.Unlock()
		return ErrVerified
	case f.sending || f.verifying:
		f.mu.Unlock()
		return ErrBusy
	case len(f.code) != CodeLength:
		f.mu.Unlock()
		return ErrIncomplete
	}
	f.verifying = true
	code := f.code
	f.mu.Unlock()

	err := f.cfg.Client.Verify(ctx, f.cfg.Email, code)

	f.mu.Lock()
	f.verifying = false
	if err == nil {
		f.verified = true
		f.code = ""
		f.errMsg = ""
	} else {
		f.recordLocked(err)
	}
	f.mu.Unlock()

	if err != nil {
		f.notify(err)
		return err
	}

	f.stopTicker()
	if f.cfg.OnVerified != nil {
		f.cfg.OnVerified()
	}
	return nil
}

// Resend asks for a new code once the countdown is over. Only a successful
// send restarts the countdown; a refusal such as the server cooldown is
// shown as the inline error.
func (f *Flow) Resend(ctx context.Context) error {
	if f.closed.Load() {
		return ErrClosed
	}

	f.mu.Lock()
	switch {
	case f.ctx == nil:
		f.mu.Unlock()
		return ErrNotStarted
	case f.verified:
		f.mu.Unlock()
		return ErrVerified
	case f.sending || f.verifying:
		f.mu.Unlock()
		return ErrBusy
	case f.remainingLocked() > 0:
		f.mu.Unlock()
		return ErrCooldownActive
	}
	f.sending = true
	f.mu.Unlock()

	return f.send(ctx)
}

// Close stops the ticker. It is safe to call more than once.
func (f *Flow) Close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	f.stopTicker()
}

// Snapshot returns the current state with derived fields filled in.
func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() State {
	remaining := f.remainingLocked()
	idle := f.ctx != nil && !f.sending && !f.verifying && !f.verified

	return State{
		Code:             f.code,
		Error:            f.errMsg,
		Sending:          f.sending,
		Verifying:        f.verifying,
		Verified:         f.verified,
		CooldownDeadline: f.deadline,
		Remaining:        remaining,
		CanResend:        idle && remaining == 0 && !f.closed.Load(),
		CanSubmit:        idle && len(f.code) == CodeLength && !f.closed.Load(),
	}
}

// send runs a generate with f.sending already set.
func (f *Flow) send(ctx context.Context) error {
	err := f.cfg.Client.Generate(ctx, GenerateRequest{
		Email:  f.cfg.Email,
		Name:   f.cfg.Name,
		Reason: f.cfg.Reason,
	})

	f.mu.Lock()
	f.sending = false
	if err == nil {
		f.code = ""
		f.errMsg = ""
		f.deadline = f.cfg.Clock.Now().Add(f.cfg.Cooldown)
		f.startTickerLocked()
	} else {
		f.recordLocked(err)
	}
	f.mu.Unlock()

	if err != nil {
		f.notify(err)
	}
	return err
}

func (f *Flow) recordLocked(err error) {
	var serr *ServerError
	if errors.As(err, &serr) {
		f.errMsg = serr.Message
	}
}

func (f *Flow) notify(err error) {
	var serr *ServerError
	if !errors.As(err, &serr) {
		f.cfg.Notifier.Notify(err)
	}
}

func (f *Flow) remainingLocked() time.Duration {
	if f.deadline.IsZero() {
		return 0
	}
	d := f.deadline.Sub(f.cfg.Clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (f *Flow) startTickerLocked() {
	if f.tickDone != nil || f.closed.Load() || f.ctx == nil {
		return
	}

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	f.tickCancel = cancel
	f.tickDone = done

	go f.runTicker(ctx, done)
}

func (f *Flow) runTicker(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(f.cfg.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			f.clearTicker(done)
			return
		case <-t.C:
			st, last := f.tick(done)
			if f.cfg.OnTick != nil {
				f.cfg.OnTick(st)
			}
			if last {
				return
			}
		}
	}
}

// tick snapshots the state. The tick that sees the countdown at zero
// unregisters the ticker before OnTick runs, so a resend from OnTick starts
// a fresh one.
func (f *Flow) tick(done chan struct{}) (State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.snapshotLocked()
	if st.Remaining > 0 {
		return st, false
	}
	f.clearTickerLocked(done)
	return st, true
}

func (f *Flow) clearTicker(done chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearTickerLocked(done)
}

func (f *Flow) clearTickerLocked(done chan struct{}) {
	if f.tickDone == done {
		f.tickCancel()
		f.tickCancel = nil
		f.tickDone = nil
	}
}

// stopTicker cancels the running ticker and waits for it to exit.
func (f *Flow) stopTicker() {
	f.mu.Lock()
	cancel, done := f.tickCancel, f.tickDone
	f.tickCancel, f.tickDone = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ticking reports whether a ticker goroutine is registered.
func (f *Flow) ticking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickDone != nil
}
