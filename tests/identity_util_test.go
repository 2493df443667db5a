package tests

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// seeded admin account; login tests skip when it is not configured
func adminCredentials(t *testing.T) (string, string) {
	t.Helper()

	email := strings.TrimSpace(os.Getenv("WORKPULSE_REAL_ADMIN_EMAIL"))
	password := os.Getenv("WORKPULSE_REAL_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("WORKPULSE_REAL_ADMIN_EMAIL and WORKPULSE_REAL_ADMIN_PASSWORD are not set")
	}

	return email, password
}

type userData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginData struct {
	AccessToken string   `json:"access_token"`
	User        userData `json:"user"`
}

func adminLogin(t *testing.T, email, password string) (int, loginData) {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/admin/login", payload, "")
	if status != http.StatusOK {
		return status, loginData{}
	}

	var data loginData
	decodeSuccess(t, body, &data)

	return status, data
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
