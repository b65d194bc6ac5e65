package repo

import (
	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/services/auth/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Account{})
}
