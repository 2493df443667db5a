// Package idempotency makes event consumers safe under redelivery. Each key
// lives in Redis as either in_progress (a lock with a short TTL) or completed
// (a marker kept for a day by default).
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// acquireScript takes the lock or reports the state already stored, in one round trip.
var acquireScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
  return ""
end
return redis.call("GET", KEYS[1])
`)

// StateTracker is the Redis implementation.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long a crashed worker can block redelivery.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed key suppresses duplicates.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func newExecOptions(opts []Option) execOptions {
	o := execOptions{lockDuration: time.Minute, stateTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = time.Minute
	}
	if o.stateTTL <= 0 {
		o.stateTTL = 24 * time.Hour
	}
	return o
}

// Acquire returns StateNone when the caller now holds the lock.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	current, err := acquireScript.Run(ctx, s.client, []string{s.prefix + key},
		StateInProgress.String(), lockDuration.Milliseconds()).Text()
	if err != nil {
		return StateError, err
	}

	switch State(current) {
	case "":
		return StateNone, nil
	case StateInProgress, StateCompleted:
		return State(current), nil
	}
	return StateError, ErrInvalidState
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn at most once per key. When fn fails the key is released so
// the next delivery retries.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)

	state, err := s.Acquire(ctx, key, o.lockDuration)
	switch {
	case err != nil:
		return err
	case state == StateInProgress:
		return ErrAlreadyInProgress
	case state == StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, s.Release(ctx, key))
	}
	return s.MarkCompleted(ctx, key, o.stateTTL)
}
