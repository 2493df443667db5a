// Package clock is the time source for usecases. Tests pin "now" with Manual
// and move it forward to cross cooldown and expiry boundaries without sleeping.
package clock

import (
	"sync"
	"time"
)

type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock in UTC.
type TimeClocker struct{}

func New() *TimeClocker { return &TimeClocker{} }

func (*TimeClocker) Now() time.Time { return time.Now().UTC() }

// Manual only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
