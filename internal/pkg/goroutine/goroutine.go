// Package goroutine runs named background tasks with a concurrency cap,
// panic recovery and error collection.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/workpulse/workpulse/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrClosed is recorded when a task is scheduled after Wait was called.
var ErrClosed = errors.New("goroutine: manager is closed")

// ErrLimitReached is recorded when a task is scheduled while every slot is taken.
var ErrLimitReached = errors.New("goroutine: maximum goroutine limit reached")

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Errors returned by tasks are collected and reported by Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f in a goroutine. It returns false when the manager is closed
// or at its limit; in both cases f never runs.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task", "task", name)
		g.record(name, ErrClosed)
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping task", "task", name)
		g.record(name, ErrLimitReached)
		return false
	}

	g.wg.Go(func() {
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", string(stack))
				}
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "task", name, "because", err)
			return
		}

		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.record(name, err)
		}
	})

	return true
}

func (g *Manager) record(name string, err error) {
	g.mu.Lock()
	g.errs = append(g.errs, &TaskError{Name: name, Err: err})
	g.mu.Unlock()
}

// Wait closes the manager, blocks until all scheduled goroutines finish and
// returns the collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

// TaskError ties a task failure to the task name.
type TaskError struct {
	Name string
	Err  error
}

func (e *TaskError) Error() string { return e.Name + ": " + e.Err.Error() }

func (e *TaskError) Unwrap() error { return e.Err }
