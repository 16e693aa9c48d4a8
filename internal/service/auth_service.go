package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/observability"
	"github.com/jobhive/jobhive/internal/repository"
	"github.com/jobhive/jobhive/internal/security"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthResult is the outcome of any operation that issues a session.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	// ResetPassword and ChangePassword return a fresh access token on success.
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (string, error)
}

type AuthConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	ResetTokenTTL    time.Duration
}

type authService struct {
	users  repository.UserRepository
	jwt    *security.JWTManager
	cfg    AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, jwt *security.JWTManager, cfg AuthConfig, logger *slog.Logger) AuthService {
	return &authService{
		users:  users,
		jwt:    jwt,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if !in.Role.Registrable() {
		return nil, ErrInvalidRole
	}
	if err := security.ValidatePasswordStrength(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	email := normalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(user); err != nil {
		// The unique index is the source of truth for duplicates; the
		// earlier lookup only keeps the common case cheap.
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	result, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))
	return result, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	now := s.now()
	user, err := s.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a bad password so the response never
			// reveals whether the email exists.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Deactivation wins over lockout when both apply.
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}
	if user.Locked(now) {
		observability.RecordLockoutEvent(ctx, "rejected")
		return nil, ErrAccountLocked
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		attempts := user.LoginAttempts + 1
		var lockUntil *time.Time
		if attempts >= s.cfg.MaxLoginAttempts {
			until := now.Add(s.cfg.LockoutDuration)
			lockUntil = &until
			observability.RecordLockoutEvent(ctx, "locked")
			s.logger.WarnContext(ctx, "account locked after repeated failures",
				"user_id", user.ID, "attempts", attempts)
		}
		if err := s.users.RecordFailedLogin(user.ID, attempts, lockUntil); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLoginAt = &now

	return s.issueSession(user)
}

// Refresh rotates the session: the presented token must both verify and
// exactly match the stored one, and the swap is atomic so a concurrent
// refresh with the same token cannot mint a second session.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	claims, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		// Deactivation is not disclosed on this path; the caller sees the
		// same 401 as any other dead refresh token.
		observability.RecordAuthRefresh(ctx, "deactivated")
		return nil, ErrInvalidRefreshToken
	}
	if user.RefreshToken != refreshToken {
		observability.RecordAuthRefresh(ctx, "stale")
		return nil, ErrInvalidRefreshToken
	}

	newRefresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateRefreshToken(user.ID, refreshToken, newRefresh); err != nil {
		if errors.Is(err, repository.ErrStaleRefreshToken) {
			observability.RecordAuthRefresh(ctx, "race_lost")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(userID)
}

func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword mints a single-use reset token and returns the raw value.
// Only its digest is stored, so a database leak cannot redeem pending resets.
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	token := security.NewRandomString(32)
	expires := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(user.ID, security.HashResetToken(token), expires); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := security.ValidatePasswordStrength(newPassword); err != nil {
		return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}
	user, err := s.users.FindByResetTokenHash(security.HashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidResetToken
		}
		return "", err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.users.ResetPassword(user.ID, hash); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return s.jwt.GenerateAccessToken(user)
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (string, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrWrongPassword
	}
	if err := security.ValidatePasswordStrength(newPassword); err != nil {
		return "", fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return "", err
	}
	return s.jwt.GenerateAccessToken(user)
}

func (s *authService) issueSession(user *domain.User) (*AuthResult, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(user.ID, refresh); err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
