package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the credential record shared by the auth and job services. The
// refresh token column holds at most one valid token per user; overwriting it
// invalidates every previously issued refresh token.
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Role         Role   `gorm:"size:32;not null;default:applicant;index" json:"role"`
	PasswordHash string `gorm:"size:1024;not null" json:"-"`

	RefreshToken string `gorm:"size:1024" json:"-"`

	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`

	PasswordResetToken   string     `gorm:"size:64;index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Locked reports whether the account is locked out at the given instant.
// Lock state expires on its own: there is no separate unlock action.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// HasValidResetToken reports whether a password reset is pending and unexpired.
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.PasswordResetToken != "" && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
}
