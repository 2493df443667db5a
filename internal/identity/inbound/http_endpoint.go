package inbound

import (
	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/identity/usecase"
	"github.com/workpulse/workpulse/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP password-reset flow and login.
type HTTPEndpoint struct {
	uc uc
}

// OTPGenerate issues a verification code and emails it.
// @Summary Send OTP
// @Description Issues a 6 digit code for the email. A new code can be requested every 30 seconds.
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OTPGenerateRequest true "OTP generate payload"
// @Success 200 {object} router.successResponse "OTP sent"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Failure 502 {object} router.errorResponse "Email delivery failed"
// @Router /api/v1/auth/otp/generate [post]
func (h *HTTPEndpoint) OTPGenerate(r *router.Request) (any, error) {
	var req OTPGenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.OTPGenerate(r.Context(), usecase.OTPGenerateInput{
		Email:  req.Email,
		Name:   req.Name,
		Reason: entity.OTPReason(req.Reason),
	}); err != nil {
		return nil, err
	}

	return OTPGenerateResponse{}, nil
}

// OTPVerify checks a code and grants a reset session on match.
// @Summary Verify OTP
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OTPVerifyRequest true "OTP verify payload"
// @Success 200 {object} router.successResponse "OTP verified"
// @Failure 403 {object} router.errorResponse "Wrong OTP"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.OTPVerify(r.Context(), usecase.OTPVerifyInput{
		Email: req.Email,
		Code:  req.Code,
	}); err != nil {
		return nil, err
	}

	return OTPVerifyResponse{}, nil
}

// ResetSessionConsume takes the reset session granted by a verified OTP.
// @Summary Consume reset session
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body ResetSessionRequest true "Reset session payload"
// @Success 200 {object} router.successResponse "Access granted"
// @Failure 400 {object} router.errorResponse "Session expired"
// @Router /api/v1/auth/reset-session [post]
func (h *HTTPEndpoint) ResetSessionConsume(r *router.Request) (any, error) {
	var req ResetSessionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetSessionConsume(r.Context(), usecase.ResetSessionConsumeInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return ResetSessionResponse{}, nil
}

// PasswordReset sets a new admin password using the reset session.
// @Summary Reset password
// @Tags Identity, Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Password reset payload"
// @Success 200 {object} router.successResponse "Password reset successful"
// @Failure 403 {object} router.errorResponse "Not an admin"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 440 {object} router.errorResponse "Session expired"
// @Router /api/v1/auth/password/reset [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordResetWithSession(r.Context(), usecase.PasswordResetWithSessionInput{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return nil, err
	}

	return PasswordResetResponse{}, nil
}

// AdminLogin authenticates an admin account.
// @Summary Admin login
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 403 {object} router.errorResponse "Wrong role or password"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/auth/admin/login [post]
func (h *HTTPEndpoint) AdminLogin(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminLogin(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return toLoginResponse(resp), nil
}

// EmployeeLogin authenticates an employee account.
// @Summary Employee login
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 403 {object} router.errorResponse "Wrong role or password"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/auth/employee/login [post]
func (h *HTTPEndpoint) EmployeeLogin(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EmployeeLogin(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return toLoginResponse(resp), nil
}

// UserLookup tells the forgot-password screen whether an admin account exists.
// @Summary Lookup user
// @Tags Identity, Password
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} router.successResponse{data=UserLookupResponse} "Lookup result"
// @Failure 403 {object} router.errorResponse "Employee account"
// @Router /api/v1/auth/users/lookup [get]
func (h *HTTPEndpoint) UserLookup(r *router.Request) (any, error) {
	resp, err := h.uc.UserLookup(r.Context(), usecase.UserLookupInput{Email: r.GetQuery("email")})
	if err != nil {
		return nil, err
	}

	return UserLookupResponse{Exists: resp.Exists}, nil
}

// PasswordUpdate changes the password of the authenticated user.
// @Summary Update password
// @Tags Identity, Password
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PasswordUpdateRequest true "Password update payload"
// @Success 200 {object} router.successResponse "Password updated successfully"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Incorrect password"
// @Router /api/v1/auth/password [put]
func (h *HTTPEndpoint) PasswordUpdate(r *router.Request) (any, error) {
	var req PasswordUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordUpdate(r.Context(), usecase.PasswordUpdateInput{
		OldPassword: req.OldPassword,
		Password:    req.Password,
	}); err != nil {
		return nil, err
	}

	return PasswordUpdateResponse{}, nil
}

func toLoginResponse(out *usecase.LoginOutput) LoginResponse {
	return LoginResponse{
		AccessToken: out.AccessToken,
		User: UserResponse{
			ID:        out.User.ID,
			Username:  out.User.Username,
			Email:     out.User.Email,
			Role:      out.User.Role.String(),
			Active:    out.User.Active,
			CreatedAt: out.User.CreatedAt,
		},
	}
}
