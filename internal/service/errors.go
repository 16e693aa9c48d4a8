package service

import "errors"

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidRole         = errors.New("role not allowed at registration")
	ErrWeakPassword        = errors.New("password does not meet policy")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDeactivated  = errors.New("account deactivated")
	ErrAccountLocked       = errors.New("account locked")
	ErrNoRefreshToken      = errors.New("refresh token required")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrWrongPassword       = errors.New("current password incorrect")

	ErrJobNotFound   = errors.New("job not found")
	ErrNotJobOwner   = errors.New("job owned by another employer")
	ErrInvalidJob    = errors.New("invalid job payload")
	ErrInvalidStatus = errors.New("invalid job status")
)
