package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/http/middleware"
	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/observability"
	"github.com/jobhive/jobhive/internal/security"
	"github.com/jobhive/jobhive/internal/service"
)

type AuthHandler struct {
	authSvc    service.AuthService
	cookieMgr  *security.CookieManager
	clientURL  string
	production bool
}

func NewAuthHandler(authSvc service.AuthService, cookieMgr *security.CookieManager, clientURL string, production bool) *AuthHandler {
	return &AuthHandler{
		authSvc:    authSvc,
		cookieMgr:  cookieMgr,
		clientURL:  clientURL,
		production: production,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (req registerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		// Empty role falls back to applicant; admin is never self-service.
		validation.Field(&req.Role, validation.In("applicant", "employer")),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (req forgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (req changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required),
	)
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

func sessionPayload(res *service.AuthResult) map[string]any {
	return map[string]any{
		"user":        res.User,
		"accessToken": res.AccessToken,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		status = "failure"
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleApplicant
	}
	res, err := h.authSvc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.register.failed", "reason", err.Error())
		h.writeAuthError(w, err)
		return
	}

	h.cookieMgr.SetRefreshToken(w, res.RefreshToken)
	observability.Audit(r, "auth.register.success", "user_id", res.User.ID, "role", string(res.User.Role))
	response.JSON(w, http.StatusCreated, sessionPayload(res))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		status = "failure"
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "email", req.Email, "client_ip", clientIP(r))
		observability.RecordAuthLogin(r.Context(), "failure")
		h.writeAuthError(w, err)
		return
	}

	h.cookieMgr.SetRefreshToken(w, res.RefreshToken)
	observability.Audit(r, "auth.login.success", "user_id", res.User.ID, "client_ip", clientIP(r))
	observability.RecordAuthLogin(r.Context(), "success")
	response.JSON(w, http.StatusOK, sessionPayload(res))
}

// Refresh accepts the token from the cookie first, then the body, matching
// browser and non-browser clients.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "refresh", status, time.Since(start))
	}()

	token := h.cookieMgr.RefreshTokenFromRequest(r)
	if token == "" {
		var req refreshRequest
		if err := decodeBody(r, &req); err == nil {
			token = req.RefreshToken
		}
	}

	res, err := h.authSvc.Refresh(r.Context(), token)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.refresh.failed", "client_ip", clientIP(r))
		observability.RecordAuthRefresh(r.Context(), "failure")
		h.writeAuthError(w, err)
		return
	}

	h.cookieMgr.SetRefreshToken(w, res.RefreshToken)
	observability.Audit(r, "auth.refresh.success", "user_id", res.User.ID)
	observability.RecordAuthRefresh(r.Context(), "success")
	response.JSON(w, http.StatusOK, map[string]any{"accessToken": res.AccessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		status = "failure"
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}
	if err := h.authSvc.Logout(r.Context(), claims.Subject); err != nil {
		status = "failure"
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Internal(w)
		return
	}

	h.cookieMgr.ClearRefreshToken(w)
	observability.Audit(r, "auth.logout.success", "user_id", claims.Subject)
	observability.RecordAuthLogout(r.Context(), "success")
	response.JSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}
	user, err := h.authSvc.GetUser(r.Context(), claims.Subject)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", status, time.Since(start))
	}()

	var req forgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		status = "failure"
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	token, err := h.authSvc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		status = "failure"
		observability.RecordPasswordFlowEvent(r.Context(), "forgot", "failure")
		h.writeAuthError(w, err)
		return
	}

	observability.Audit(r, "auth.forgot_password.requested", "email", req.Email)
	observability.RecordPasswordFlowEvent(r.Context(), "forgot", "success")
	payload := map[string]any{"message": "Password reset token generated"}
	if !h.production {
		// Delivery goes through the notification service in production;
		// outside it the link is returned directly for local testing.
		payload["resetUrl"] = fmt.Sprintf("%s/reset-password/%s", h.clientURL, token)
	}
	response.JSON(w, http.StatusOK, payload)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reset_password", status, time.Since(start))
	}()

	token := pathParam(r, "token")
	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil || req.Password == "" {
		status = "failure"
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Password is required")
		return
	}

	access, err := h.authSvc.ResetPassword(r.Context(), token, req.Password)
	if err != nil {
		status = "failure"
		observability.RecordPasswordFlowEvent(r.Context(), "reset", "failure")
		h.writeAuthError(w, err)
		return
	}

	observability.Audit(r, "auth.reset_password.success")
	observability.RecordPasswordFlowEvent(r.Context(), "reset", "success")
	response.JSON(w, http.StatusOK, map[string]any{
		"message":     "Password has been reset",
		"accessToken": access,
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "change_password", status, time.Since(start))
	}()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		status = "failure"
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		status = "failure"
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		status = "failure"
		response.ErrorWithDetails(w, http.StatusBadRequest, response.CodeValidationFailed, "Validation failed", err)
		return
	}

	access, err := h.authSvc.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword)
	if err != nil {
		status = "failure"
		observability.RecordPasswordFlowEvent(r.Context(), "change", "failure")
		h.writeAuthError(w, err)
		return
	}

	observability.Audit(r, "auth.change_password.success", "user_id", claims.Subject)
	observability.RecordPasswordFlowEvent(r.Context(), "change", "success")
	response.JSON(w, http.StatusOK, map[string]any{
		"message":     "Password changed",
		"accessToken": access,
	})
}

// writeAuthError maps service sentinels onto wire statuses. Anything
// unmapped is an internal error and stays opaque to the client.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		response.Error(w, http.StatusBadRequest, response.CodeDuplicateEmail, "Email already registered")
	case errors.Is(err, service.ErrInvalidRole):
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, "Role must be applicant or employer")
	case errors.Is(err, service.ErrWeakPassword):
		response.Error(w, http.StatusBadRequest, response.CodeValidationFailed, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, service.ErrAccountDeactivated):
		response.Error(w, http.StatusForbidden, response.CodeAccountDeactivated, "Account is deactivated")
	case errors.Is(err, service.ErrAccountLocked):
		response.Error(w, http.StatusLocked, response.CodeAccountLocked, "Account temporarily locked due to repeated failures")
	case errors.Is(err, service.ErrNoRefreshToken):
		response.Error(w, http.StatusUnauthorized, response.CodeNoRefreshToken, "Refresh token required")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidRefresh, "Invalid refresh token")
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidResetToken):
		response.Error(w, http.StatusBadRequest, response.CodeInvalidToken, "Invalid or expired reset token")
	case errors.Is(err, service.ErrWrongPassword):
		response.Error(w, http.StatusUnauthorized, response.CodeInvalidCredentials, "Current password is incorrect")
	default:
		response.Internal(w)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
