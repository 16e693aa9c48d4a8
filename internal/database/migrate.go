package database

import (
	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Job{},
	)
}
