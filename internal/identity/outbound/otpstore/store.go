// Package otpstore keeps OTP records per flow key and serializes
// read-modify-write access to each key.
package otpstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/workpulse/workpulse/internal/identity/entity"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var (
	// ErrContention is returned when a redis update keeps losing its optimistic lock.
	ErrContention = errors.New("otpstore: too much contention on key")
	// ErrUnknownDriver is returned by New for an unsupported driver.
	ErrUnknownDriver = errors.New("otpstore: unknown driver")
)

// UpdateFunc mutates rec in place. Returning an error discards the mutation.
// It may run more than once for a single Update and must not have side effects.
type UpdateFunc func(rec *entity.OTPRecord) error

// Store is the OTP record store.
//
// Update loads the record for key (zero value when absent or expired), calls
// fn and persists the result atomically with respect to other updates of the
// same key. A record that no longer carries state is deleted.
type Store interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Options selects and configures a Store implementation.
type Options struct {
	Redis RedisOptions
}

// New builds a Store by driver name.
func New(driver string, clock clocker, opts Options) (Store, error) {
	switch strings.TrimSpace(driver) {
	case "", DriverMemory:
		return NewMemory(clock), nil
	case DriverRedis:
		return NewRedis(opts.Redis.Client, clock, opts.Redis)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
