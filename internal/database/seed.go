package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/security"
)

// Seed promotes the bootstrap account to admin, creating it with the given
// password if it does not exist. Admins cannot be created through the public
// registration endpoint; this is the only supported path.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	if adminEmail == "" {
		return nil
	}

	var user domain.User
	err := db.First(&user, "email = ?", adminEmail).Error
	switch {
	case err == nil:
		if user.Role == domain.RoleAdmin {
			return nil
		}
		return db.Model(&user).Update("role", domain.RoleAdmin).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if adminPassword == "" {
			return errors.New("bootstrap admin does not exist and no password provided")
		}
		if err := security.ValidatePasswordStrength(adminPassword); err != nil {
			return err
		}
		hash, err := security.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		return db.Create(&domain.User{
			Email:        adminEmail,
			Name:         "Administrator",
			Role:         domain.RoleAdmin,
			PasswordHash: hash,
			IsActive:     true,
		}).Error
	default:
		return err
	}
}
