// Package response owns the JSON envelope every service returns. Handlers
// never write raw JSON themselves so clients can rely on one shape across
// the gateway and every backend.
package response

import (
	"encoding/json"
	"net/http"
)

type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Common error codes shared by the services and the gateway.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeNoRefreshToken     = "NO_REFRESH_TOKEN"
	CodeInvalidRefresh     = "INVALID_REFRESH_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Success: false, Error: &APIError{Code: code, Message: message}})
}

func ErrorWithDetails(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, Envelope{Success: false, Error: &APIError{Code: code, Message: message, Details: details}})
}

// Internal hides the underlying error from clients. The caller logs it.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "Something went wrong")
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
