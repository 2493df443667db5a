package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
)

// Start serves HTTP in the background. The returned channel closes on
// SIGINT, SIGTERM or SIGHUP, or when the listener fails.
func (a *App) Start() <-chan struct{} {
	sigCtx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	terminated := make(chan struct{})

	go func() {
		slog.Info("workpulse http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "address", a.httpServer.Addr, "error", err)
			stop()
		}
	}()

	go func() {
		<-sigCtx.Done()
		stop()
		slog.Info("shutdown requested")
		close(terminated)
	}()

	return terminated
}

// Stop runs the shutdown in order: cancel background consumers, drain HTTP,
// wait for goroutines, then release resources in reverse start order.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to drain http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background goroutine failed", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "workpulse stopped")
}
