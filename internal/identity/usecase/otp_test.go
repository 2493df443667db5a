package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

const email = "admin@workpulse.io"

func TestOTPGenerate(t *testing.T) {
	t.Run("sends the forgot password template", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, "  Admin@WorkPulse.io ", "042917"))

		msg := h.mail.last()
		assert.Equal(t, []string{email}, msg.To)
		assert.Equal(t, "WorkPulse Reset Password Verification", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "042917")
		assert.Contains(t, msg.HTMLBody, "Dear Ada,")
		assert.Contains(t, msg.HTMLBody, "#854CE6")
		assert.Contains(t, msg.HTMLBody, "The WorkPulse Team")
	})

	t.Run("other reasons use the verification template", func(t *testing.T) {
		h := newHarness(t)
		h.codes.codes = []string{"123456"}
		require.NoError(t, h.uc.OTPGenerate(context.Background(), OTPGenerateInput{Email: email}))

		msg := h.mail.last()
		assert.Equal(t, "Account Verification OTP", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "Dear admin,")
		assert.Contains(t, msg.HTMLBody, "Verify WorkPulse Account")
	})

	t.Run("escapes the name", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.uc.OTPGenerate(context.Background(), OTPGenerateInput{Email: email, Name: "<b>x</b>"}))
		assert.NotContains(t, h.mail.last().HTMLBody, "<b>x</b>")
	})

	t.Run("invalid input", func(t *testing.T) {
		h := newHarness(t)
		err := h.uc.OTPGenerate(context.Background(), OTPGenerateInput{Email: "not-an-email"})
		requireCode(t, err, goerror.CodeInvalidInput, "")
		assert.Empty(t, h.mail.sent)
	})

	t.Run("cooldown", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "111111"))

		h.clock.Advance(29 * time.Second)
		requireCode(t, h.generate(t, email, "222222"), goerror.CodeTooManyRequest, "Please wait before requesting another OTP")
		assert.Len(t, h.mail.sent, 1)

		h.clock.Advance(time.Second)
		require.NoError(t, h.generate(t, email, "333333"))

		requireCode(t, h.verify(email, "111111"), goerror.CodeForbidden, "Wrong OTP")
		require.NoError(t, h.verify(email, "333333"))
	})

	t.Run("cooldown applies after the code was consumed", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "111111"))
		require.NoError(t, h.verify(email, "111111"))

		h.clock.Advance(10 * time.Second)
		requireCode(t, h.generate(t, email, "222222"), goerror.CodeTooManyRequest, "")
	})

	t.Run("delivery failure keeps the code valid", func(t *testing.T) {
		h := newHarness(t)
		h.mail.err = errors.New("smtp: 421 service not available")

		requireCode(t, h.generate(t, email, "654321"), goerror.CodeBadGateway, "Failed to send OTP email")

		h.mail.err = nil
		require.NoError(t, h.verify(email, "654321"))

		h.clock.Advance(10 * time.Second)
		requireCode(t, h.generate(t, email, "222222"), goerror.CodeTooManyRequest, "")
	})

	t.Run("generator failure", func(t *testing.T) {
		h := newHarness(t)
		h.codes.err = errors.New("entropy")
		requireCode(t, h.generate(t, email, ""), goerror.CodeInternal, "Internal server error")
	})

	t.Run("flows are independent", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "111111"))
		require.NoError(t, h.generate(t, "employee@workpulse.io", "222222"))

		requireCode(t, h.verify(email, "222222"), goerror.CodeForbidden, "")
		require.NoError(t, h.verify("employee@workpulse.io", "222222"))
		require.NoError(t, h.verify(email, "111111"))
	})
}

func TestOTPVerify(t *testing.T) {
	t.Run("no outstanding code", func(t *testing.T) {
		h := newHarness(t)
		requireCode(t, h.verify(email, "123456"), goerror.CodeForbidden, "Wrong OTP")
	})

	t.Run("numeric leniency", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "000007"))
		require.NoError(t, h.verify(email, "7"))
	})

	t.Run("rejects non digits", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		requireCode(t, h.verify(email, "12a456"), goerror.CodeInvalidInput, "")
		requireCode(t, h.verify(email, "1234567"), goerror.CodeInvalidInput, "")
		require.NoError(t, h.verify(email, "123456"))
	})

	t.Run("never succeeds twice for the same code", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		require.NoError(t, h.verify(email, "123456"))
		requireCode(t, h.verify(email, "123456"), goerror.CodeForbidden, "Wrong OTP")
	})

	t.Run("expires after ttl", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))

		h.clock.Advance(5*time.Minute + time.Second)
		requireCode(t, h.verify(email, "123456"), goerror.CodeForbidden, "Wrong OTP")
	})

	t.Run("still valid at ttl", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))

		h.clock.Advance(5 * time.Minute)
		require.NoError(t, h.verify(email, "123456"))
	})

	t.Run("mismatch leaves the record unchanged", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))

		key, err := h.uc.flowKey(email)
		require.NoError(t, err)
		read := func() entity.OTPRecord {
			var rec entity.OTPRecord
			require.NoError(t, h.store.Update(context.Background(), key, func(r *entity.OTPRecord) error {
				rec = *r
				return nil
			}))
			return rec
		}

		before := read()
		requireCode(t, h.verify(email, "000000"), goerror.CodeForbidden, "")
		requireCode(t, h.verify(email, "000001"), goerror.CodeForbidden, "")
		assert.Equal(t, before, read())
	})

	t.Run("concurrent verifies grant once", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 16 {
			wg.Go(func() {
				if h.verify(email, "123456") == nil {
					ok.Add(1)
				}
			})
		}
		wg.Wait()
		assert.Equal(t, int32(1), ok.Load())
	})
}

func TestResetSessionConsume(t *testing.T) {
	t.Run("without grant", func(t *testing.T) {
		h := newHarness(t)
		requireCode(t, h.consume(email), goerror.CodeBadRequest, "Session expired")
	})

	t.Run("grant still valid at session ttl", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		require.NoError(t, h.verify(email, "123456"))

		h.clock.Advance(10 * time.Minute)
		require.NoError(t, h.consume(email))
	})

	t.Run("grant expires", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		require.NoError(t, h.verify(email, "123456"))

		h.clock.Advance(10*time.Minute + time.Second)
		requireCode(t, h.consume(email), goerror.CodeBadRequest, "Session expired")
	})

	t.Run("concurrent consumes succeed once", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		require.NoError(t, h.verify(email, "123456"))

		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 16 {
			wg.Go(func() {
				if h.consume(email) == nil {
					ok.Add(1)
				}
			})
		}
		wg.Wait()
		assert.Equal(t, int32(1), ok.Load())
	})
}

func TestScenarios(t *testing.T) {
	t.Run("generate verify consume consume", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "482913"))
		require.NoError(t, h.verify(email, "482913"))
		require.NoError(t, h.consume(email))
		requireCode(t, h.consume(email), goerror.CodeBadRequest, "Session expired")
	})

	t.Run("second generate within cooldown keeps first code", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "111111"))
		h.clock.Advance(10 * time.Second)
		requireCode(t, h.generate(t, email, "222222"), goerror.CodeTooManyRequest, "")
		require.NoError(t, h.verify(email, "111111"))
	})

	t.Run("wrong code then right code", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.generate(t, email, "123456"))
		requireCode(t, h.verify(email, "654321"), goerror.CodeForbidden, "Wrong OTP")
		require.NoError(t, h.verify(email, "123456"))
	})

	t.Run("each spaced generate replaces the code", func(t *testing.T) {
		h := newHarness(t)
		for i := range 4 {
			require.NoError(t, h.generate(t, email, fmt.Sprintf("10000%d", i)))
			h.clock.Advance(30 * time.Second)
		}
		requireCode(t, h.verify(email, "100002"), goerror.CodeForbidden, "")
		require.NoError(t, h.verify(email, "100003"))
	})
}
