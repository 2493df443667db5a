package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/workpulse/workpulse/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/workpulse/internal/pkg/router/middleware_recover.go:21 +0x85
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/workpulse/workpulse/internal/identity/inbound.(*Endpoint).OTPGenerate(...)
	/src/workpulse/internal/identity/inbound/http_endpoint.go:40 +0x1d
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:21",
		"internal/identity/inbound/http_endpoint.go:40",
	}, InternalPaths(stack))
}

func TestInternalPathsNone(t *testing.T) {
	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:5 +0x1\n")))
}
