package tests

import (
	"net/http"
	"testing"
)

func TestPasswordUpdate(t *testing.T) {

	t.Run("RequiresToken", func(t *testing.T) {

		// Act
		status, _ := doJSON(t, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"oldPassword": "Secret123!",
			"password":    "Secret123!1",
		}, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", status)
		}
	})

	t.Run("ChangeAndRevert", func(t *testing.T) {
		email, password := adminCredentials(t)
		_, resp := adminLogin(t, email, password)
		newPassword := password + "1"

		// Act
		status, body := doJSON(t, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"oldPassword": password,
			"password":    newPassword,
		}, resp.AccessToken)

		// Assert
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("password update failed: status=%d message=%q", status, errEnv.Message)
		}

		status, again := adminLogin(t, email, newPassword)
		if status != http.StatusOK {
			t.Fatalf("expected login with new password, got %d", status)
		}

		status, body = doJSON(t, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"oldPassword": newPassword,
			"password":    password,
		}, again.AccessToken)
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("password revert failed: status=%d message=%q", status, errEnv.Message)
		}
	})
}
