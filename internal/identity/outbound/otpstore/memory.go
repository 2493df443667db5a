package otpstore

import (
	"context"
	"sync"
	"time"

	"github.com/workpulse/workpulse/internal/identity/entity"
)

type clocker interface {
	Now() time.Time
}

type memoryEntry struct {
	mu   sync.Mutex
	rec  *entity.OTPRecord
	dead bool
}

// Memory is a single-process Store. Each key has its own mutex so unrelated
// flows never wait on each other. Expired records are evicted lazily on
// access and by Sweep.
type Memory struct {
	entries sync.Map // key -> *memoryEntry
	clock   clocker
}

func NewMemory(clock clocker) *Memory {
	return &Memory{clock: clock}
}

func (m *Memory) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		v, _ := m.entries.LoadOrStore(key, &memoryEntry{})
		e := v.(*memoryEntry)

		e.mu.Lock()
		if e.dead {
			// removed while we waited; retry against the live entry
			e.mu.Unlock()
			continue
		}

		err := m.apply(key, e, fn)
		e.mu.Unlock()
		return err
	}
}

func (m *Memory) apply(key string, e *memoryEntry, fn UpdateFunc) error {
	now := m.clock.Now()

	var rec entity.OTPRecord
	if e.rec != nil && !e.rec.IsExpired(now) {
		rec = *e.rec
	}

	if err := fn(&rec); err != nil {
		if e.rec == nil {
			m.drop(key, e)
		}
		return err
	}

	if rec.IsExpired(now) {
		e.rec = nil
		m.drop(key, e)
		return nil
	}

	e.rec = &rec
	return nil
}

// drop must be called with e.mu held.
func (m *Memory) drop(key string, e *memoryEntry) {
	e.dead = true
	m.entries.CompareAndDelete(key, e)
}

// Sweep evicts every expired record and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.clock.Now()
	removed := 0

	m.entries.Range(func(k, v any) bool {
		e := v.(*memoryEntry)
		e.mu.Lock()
		if !e.dead && (e.rec == nil || e.rec.IsExpired(now)) {
			e.rec = nil
			m.drop(k.(string), e)
			removed++
		}
		e.mu.Unlock()
		return true
	})

	return removed
}

// RunJanitor calls Sweep every interval until ctx is done.
func (m *Memory) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
