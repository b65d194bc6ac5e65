package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/services/media/internal/models"
)

var ErrNotFound = errors.New("media file not found")

func (r *GormRepo) Create(ctx context.Context, m *models.MediaFile) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// ListByOwner returns newest first.
func (r *GormRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.MediaFile, error) {
	out := []models.MediaFile{}
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindOwned does not distinguish a missing id from one owned by someone else.
func (r *GormRepo) FindOwned(ctx context.Context, id uint, ownerID string) (*models.MediaFile, error) {
	var m models.MediaFile
	err := r.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.MediaFile{}, id).Error
}
