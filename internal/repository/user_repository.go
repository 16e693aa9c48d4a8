package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
)

// ErrStaleRefreshToken is returned by RotateRefreshToken when the stored
// token no longer matches the presented one. A concurrent refresh (or a
// replay of an already-rotated token) loses the race and sees this error.
var ErrStaleRefreshToken = errors.New("refresh token is stale")

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)

	SetRefreshToken(userID, token string) error
	ClearRefreshToken(userID string) error
	RotateRefreshToken(userID, oldToken, newToken string) error

	RecordFailedLogin(userID string, attempts int, lockUntil *time.Time) error
	RecordSuccessfulLogin(userID string, at time.Time) error

	SetActive(userID string, active bool) error

	SetResetToken(userID, tokenHash string, expires time.Time) error
	FindByResetTokenHash(tokenHash string, now time.Time) (*domain.User, error)
	ResetPassword(userID, passwordHash string) error
	UpdatePassword(userID, passwordHash string) error
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

func (r *gormUserRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) SetRefreshToken(userID, token string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("refresh_token", token).Error
}

func (r *gormUserRepository) ClearRefreshToken(userID string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("refresh_token", "").Error
}

// RotateRefreshToken swaps the stored token in a single conditional update so
// two concurrent refreshes cannot both succeed.
func (r *gormUserRepository) RotateRefreshToken(userID, oldToken, newToken string) error {
	res := r.db.Model(&domain.User{}).
		Where("id = ? AND refresh_token = ?", userID, oldToken).
		Update("refresh_token", newToken)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRefreshToken
	}
	return nil
}

func (r *gormUserRepository) RecordFailedLogin(userID string, attempts int, lockUntil *time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"login_attempts": attempts,
			"lock_until":     lockUntil,
		}).Error
}

func (r *gormUserRepository) RecordSuccessfulLogin(userID string, at time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"login_attempts": 0,
			"lock_until":     nil,
			"last_login_at":  at,
		}).Error
}

// SetActive also drops the stored refresh token when deactivating, so a
// disabled account cannot keep refreshing an existing session.
func (r *gormUserRepository) SetActive(userID string, active bool) error {
	updates := map[string]any{"is_active": active}
	if !active {
		updates["refresh_token"] = ""
	}
	return r.db.Model(&domain.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *gormUserRepository) SetResetToken(userID, tokenHash string, expires time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"password_reset_token":   tokenHash,
			"password_reset_expires": expires,
		}).Error
}

func (r *gormUserRepository) FindByResetTokenHash(tokenHash string, now time.Time) (*domain.User, error) {
	var user domain.User
	err := r.db.First(&user,
		"password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword installs the new hash and clears reset and lockout state in
// one update, so a successful reset always unlocks the account.
func (r *gormUserRepository) ResetPassword(userID, passwordHash string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"password_reset_token":   "",
			"password_reset_expires": nil,
			"login_attempts":         0,
			"lock_until":             nil,
			"refresh_token":          "",
		}).Error
}

func (r *gormUserRepository) UpdatePassword(userID, passwordHash string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}
