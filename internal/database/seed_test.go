package database

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/security"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedCreatesAdmin(t *testing.T) {
	db := openTestDB(t)
	if err := Seed(db, "admin@jobhive.io", "Adm1nPassword"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var user domain.User
	if err := db.First(&user, "email = ?", "admin@jobhive.io").Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("role = %q", user.Role)
	}
	ok, err := security.VerifyPassword("Adm1nPassword", user.PasswordHash)
	if err != nil || !ok {
		t.Errorf("password not usable: ok=%v err=%v", ok, err)
	}
}

func TestSeedPromotesExistingUser(t *testing.T) {
	db := openTestDB(t)
	hash, _ := security.HashPassword("Sup3rSecret")
	if err := db.Create(&domain.User{
		Email: "boss@jobhive.io", Name: "Boss", Role: domain.RoleApplicant,
		PasswordHash: hash, IsActive: true,
	}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Seed(db, "boss@jobhive.io", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var user domain.User
	_ = db.First(&user, "email = ?", "boss@jobhive.io").Error
	if user.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 2; i++ {
		if err := Seed(db, "admin@jobhive.io", "Adm1nPassword"); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	var count int64
	db.Model(&domain.User{}).Where("email = ?", "admin@jobhive.io").Count(&count)
	if count != 1 {
		t.Errorf("count = %d", count)
	}
}

func TestSeedNoEmailIsNoop(t *testing.T) {
	db := openTestDB(t)
	if err := Seed(db, "", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 0 {
		t.Errorf("count = %d", count)
	}
}
