package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
)

type ProviderRepository interface {
	// Все активные провайдеры агентства — материал для индекса имён.
	ListByAgency(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID) ([]model.Provider, error)
	// Найти провайдера по ID. Отсутствие — (nil, nil).
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Provider, error)
	// Удалить провайдера (уборка плейсхолдеров при откате импорта).
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type GormProviderRepository struct{}

func NewGormProviderRepository() *GormProviderRepository {
	return &GormProviderRepository{}
}

func (r *GormProviderRepository) ListByAgency(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID) ([]model.Provider, error) {
	var rows []model.Provider
	err := tx.WithContext(ctx).
		Where("agency_id = ? AND is_active = ?", agencyID, true).
		Order("last_name ASC, first_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list providers")
	}
	return rows, nil
}

func (r *GormProviderRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Provider, error) {
	var p model.Provider
	err := tx.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get provider")
	}
	return &p, nil
}

func (r *GormProviderRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if err := tx.WithContext(ctx).Delete(&model.Provider{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "delete provider")
	}
	return nil
}
