package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/services/auth/internal/models"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrUserNotFound     = errors.New("user not found")
)

func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExist
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func (r *GormRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UsernameByEmail resolves an email case-insensitively. Emails are not
// unique; the oldest account wins.
func (r *GormRepo) UsernameByEmail(ctx context.Context, email string) (string, error) {
	var a models.Account
	err := r.DB.WithContext(ctx).
		Select("username").
		Where("LOWER(email) = LOWER(?)", email).
		Order("id ASC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return a.Username, nil
}
