package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/workpulse/workpulse/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 envelope and logs where it happened.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint // sentinel must be re-panicked as is
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic recovered in http handler", "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic recovered in http handler", "panic", rvr, "stack", string(stack))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
