package tests

import (
	"net/http"
	"testing"
)

func TestAdminLogin(t *testing.T) {
	email, password := adminCredentials(t)

	t.Run("Success", func(t *testing.T) {

		// Act
		status, resp := adminLogin(t, email, password)

		// Assert
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if resp.AccessToken == "" {
			t.Fatalf("expected access token in login response")
		}
		if resp.User.Email != email || resp.User.Role != "admin" {
			t.Fatalf("unexpected user in login response: %+v", resp.User)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {

		// Act
		status, _ := adminLogin(t, email, password+"x")

		// Assert
		if status != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", status)
		}
	})
}
