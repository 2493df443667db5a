package tests

import (
	"net/http"
	"testing"
)

func TestOTPFlow(t *testing.T) {

	t.Run("GenerateThenCooldown", func(t *testing.T) {

		// Arrange
		payload := map[string]string{
			"email":  uniqueEmail("otp"),
			"name":   "Real Test",
			"reason": "reset your password",
		}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/otp/generate", payload, "")

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("otp generate failed: status=%d message=%q", status, errEnv.Message)
		}
		if env := decodeSuccess(t, body, nil); env.Message != "OTP sent" {
			t.Fatalf("unexpected message %q", env.Message)
		}

		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/otp/generate", payload, "")
		if status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 during cooldown, got %d", status)
		}
	})

	t.Run("VerifyWithoutCode", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{
			"email": uniqueEmail("otp"),
			"code":  "123456",
		}, "")

		// Assert
		if status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})

	t.Run("ResetSessionWithoutVerify", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/reset-session", map[string]string{
			"email": uniqueEmail("otp"),
		}, "")

		// Assert
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("PasswordResetWithoutSession", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/password/reset", map[string]string{
			"email":    uniqueEmail("otp"),
			"password": "Secret123!",
		}, "")

		// Assert
		if status != 440 {
			t.Fatalf("expected 440, got %d", status)
		}
	})
}
