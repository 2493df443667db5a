package inbound

import (
	"context"
	"net/http"

	"github.com/workpulse/workpulse/internal/identity/usecase"
	"github.com/workpulse/workpulse/internal/pkg/router"
)

type uc interface {
	OTPGenerate(ctx context.Context, in usecase.OTPGenerateInput) error
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) error
	ResetSessionConsume(ctx context.Context, in usecase.ResetSessionConsumeInput) error
	PasswordResetWithSession(ctx context.Context, in usecase.PasswordResetWithSessionInput) error

	AdminLogin(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	EmployeeLogin(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	UserLookup(ctx context.Context, in usecase.UserLookupInput) (*usecase.UserLookupOutput, error)
	PasswordUpdate(ctx context.Context, in usecase.PasswordUpdateInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// OTP flow
	r.POST("/api/v1/auth/otp/generate", end.OTPGenerate)
	r.POST("/api/v1/auth/otp/verify", end.OTPVerify)
	r.POST("/api/v1/auth/reset-session", end.ResetSessionConsume)
	r.POST("/api/v1/auth/password/reset", end.PasswordReset)

	// Login
	r.POST("/api/v1/auth/admin/login", end.AdminLogin)
	r.POST("/api/v1/auth/employee/login", end.EmployeeLogin)
	r.GET("/api/v1/auth/users/lookup", end.UserLookup)

	r.PUT("/api/v1/auth/password", end.PasswordUpdate) // need authenticated
}

// PublicEndpoints lists the routes above that are served without a bearer token.
func PublicEndpoints() map[string][]string {
	return map[string][]string{
		http.MethodPost: {
			"/api/v1/auth/otp/generate",
			"/api/v1/auth/otp/verify",
			"/api/v1/auth/reset-session",
			"/api/v1/auth/password/reset",
			"/api/v1/auth/admin/login",
			"/api/v1/auth/employee/login",
		},
		http.MethodGet: {
			"/api/v1/auth/users/lookup",
		},
	}
}
