package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/jwt"
)

func (h *harness) grant(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, h.generate(t, email, "123456"))
	require.NoError(t, h.verify(email, "123456"))
}

func (h *harness) reset(email, password string) error {
	return h.uc.PasswordResetWithSession(context.Background(), PasswordResetWithSessionInput{Email: email, Password: password})
}

func TestPasswordResetWithSession(t *testing.T) {
	t.Run("without session", func(t *testing.T) {
		h := newHarness(t)
		requireCode(t, h.reset(email, "new-password-1"), goerror.CodeSessionExpired, "Session expired")
		assert.Empty(t, h.db.updated)
	})

	t.Run("success consumes the session and publishes", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, email)

		require.NoError(t, h.reset(email, "new-password-1"))
		assert.True(t, h.uc.bcrypt.Verify(h.db.updated[1], "new-password-1"))

		require.Len(t, h.mq.resets, 1)
		ev := h.mq.resets[0]
		assert.Equal(t, int64(1), ev.UserID)
		assert.Equal(t, email, ev.Email)
		assert.Equal(t, "Ada", ev.Username)
		assert.Equal(t, h.clock.Now(), ev.At)

		requireCode(t, h.reset(email, "new-password-2"), goerror.CodeSessionExpired, "Session expired")
		requireCode(t, h.consume(email), goerror.CodeBadRequest, "")
	})

	t.Run("consume before reset takes the grant", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, email)
		require.NoError(t, h.consume(email))
		requireCode(t, h.reset(email, "new-password-1"), goerror.CodeSessionExpired, "")
	})

	t.Run("unknown user keeps the session", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, "ghost@workpulse.io")

		requireCode(t, h.reset("ghost@workpulse.io", "new-password-1"), goerror.CodeNotFound, "User not found")
		require.NoError(t, h.consume("ghost@workpulse.io"))
	})

	t.Run("employee is refused", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, "employee@workpulse.io")

		requireCode(t, h.reset("employee@workpulse.io", "new-password-1"), goerror.CodeForbidden, "You are not an admin login as an admin")
		assert.Empty(t, h.db.updated)
		require.NoError(t, h.consume("employee@workpulse.io"))
	})

	t.Run("weak password", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, email)
		requireCode(t, h.reset(email, "short"), goerror.CodeInvalidInput, "")
		require.NoError(t, h.consume(email))
	})

	t.Run("publish failure is not reported", func(t *testing.T) {
		h := newHarness(t)
		h.mq.err = errors.New("broker down")
		h.grant(t, email)
		require.NoError(t, h.reset(email, "new-password-1"))
		assert.NotEmpty(t, h.db.updated[1])
	})

	t.Run("database failure", func(t *testing.T) {
		h := newHarness(t)
		h.grant(t, email)
		h.db.err = errors.New("conn reset")
		requireCode(t, h.reset(email, "new-password-1"), goerror.CodeInternal, "")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.uc.AdminLogin(ctx, LoginInput{Email: "ADMIN@workpulse.io", Password: "admin-pass"})
		require.NoError(t, err)
		assert.Equal(t, "token-admin-admin@workpulse.io", out.AccessToken)
		assert.Equal(t, int64(1), out.User.ID)
	})

	t.Run("employee", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.uc.EmployeeLogin(ctx, LoginInput{Email: "employee@workpulse.io", Password: "employee-pass"})
		require.NoError(t, err)
		assert.Equal(t, "token-employee-employee@workpulse.io", out.AccessToken)
	})

	t.Run("wrong role", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.uc.AdminLogin(ctx, LoginInput{Email: "employee@workpulse.io", Password: "employee-pass"})
		requireCode(t, err, goerror.CodeForbidden, "You are not an admin login as an employee")

		_, err = h.uc.EmployeeLogin(ctx, LoginInput{Email: email, Password: "admin-pass"})
		requireCode(t, err, goerror.CodeForbidden, "You are not an employee login as an admin")
	})

	t.Run("incorrect password", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.uc.AdminLogin(ctx, LoginInput{Email: email, Password: "nope"})
		requireCode(t, err, goerror.CodeForbidden, "Incorrect password")
	})

	t.Run("unknown user", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.uc.AdminLogin(ctx, LoginInput{Email: "ghost@workpulse.io", Password: "x"})
		requireCode(t, err, goerror.CodeNotFound, "User not found")
	})

	t.Run("invalid input", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.uc.EmployeeLogin(ctx, LoginInput{Email: email})
		requireCode(t, err, goerror.CodeInvalidInput, "")
	})
}

func TestUserLookup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.uc.UserLookup(ctx, UserLookupInput{Email: email})
	require.NoError(t, err)
	assert.True(t, out.Exists)

	out, err = h.uc.UserLookup(ctx, UserLookupInput{Email: "ghost@workpulse.io"})
	require.NoError(t, err)
	assert.False(t, out.Exists)

	_, err = h.uc.UserLookup(ctx, UserLookupInput{Email: "employee@workpulse.io"})
	requireCode(t, err, goerror.CodeForbidden, "You are an employee login as an employee")

	h.db.err = errors.New("conn reset")
	_, err = h.uc.UserLookup(ctx, UserLookupInput{Email: email})
	requireCode(t, err, goerror.CodeInternal, "")
}

func TestPasswordUpdate(t *testing.T) {
	authed := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 2, UserEmail: "employee@workpulse.io", Role: "employee"})

	t.Run("unauthenticated", func(t *testing.T) {
		h := newHarness(t)
		err := h.uc.PasswordUpdate(context.Background(), PasswordUpdateInput{OldPassword: "employee-pass", Password: "brand-new-pass"})
		requireCode(t, err, goerror.CodeUnauthorized, "")
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.uc.PasswordUpdate(authed, PasswordUpdateInput{OldPassword: "employee-pass", Password: "brand-new-pass"}))
		assert.True(t, h.uc.bcrypt.Verify(h.db.updated[2], "brand-new-pass"))
		require.Len(t, h.mq.changes, 1)
		assert.Equal(t, "Eve", h.mq.changes[0].Username)
	})

	t.Run("wrong old password", func(t *testing.T) {
		h := newHarness(t)
		err := h.uc.PasswordUpdate(authed, PasswordUpdateInput{OldPassword: "nope", Password: "brand-new-pass"})
		requireCode(t, err, goerror.CodeForbidden, "Incorrect password")
		assert.Empty(t, h.db.updated)
	})

	t.Run("user gone", func(t *testing.T) {
		h := newHarness(t)
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 99})
		err := h.uc.PasswordUpdate(ctx, PasswordUpdateInput{OldPassword: "x", Password: "brand-new-pass"})
		requireCode(t, err, goerror.CodeNotFound, "User not found")
	})

	t.Run("weak password", func(t *testing.T) {
		h := newHarness(t)
		err := h.uc.PasswordUpdate(authed, PasswordUpdateInput{OldPassword: "employee-pass", Password: "short"})
		requireCode(t, err, goerror.CodeInvalidInput, "")
	})
}
