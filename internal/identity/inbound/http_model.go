package inbound

import "time"

type OTPGenerateRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type OTPGenerateResponse struct{}

func (OTPGenerateResponse) Message() string { return "OTP sent" }

type OTPVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type OTPVerifyResponse struct{}

func (OTPVerifyResponse) Message() string { return "OTP verified" }

type ResetSessionRequest struct {
	Email string `json:"email"`
}

type ResetSessionResponse struct{}

func (ResetSessionResponse) Message() string { return "Access granted" }

type PasswordResetRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string { return "Password reset successful" }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

func (LoginResponse) Message() string { return "Login successful" }

type UserLookupResponse struct {
	Exists bool `json:"exists"`
}

func (r UserLookupResponse) Message() string {
	if r.Exists {
		return "User found"
	}
	return "User does not exist"
}

type PasswordUpdateRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

type PasswordUpdateResponse struct{}

func (PasswordUpdateResponse) Message() string { return "Password updated successfully" }
