package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
)

type SchoolRepository interface {
	// Точное разрешение площадки по имени (без регистра) или слагу.
	// Никакого fuzzy и никакого автосоздания. Отсутствие — (nil, nil).
	FindByNameOrSlug(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, name, slug string) (*model.School, error)
	// Найти площадку по ID. Отсутствие — (nil, nil).
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.School, error)
	// Удалить площадку (уборка при откате импорта).
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type GormSchoolRepository struct{}

func NewGormSchoolRepository() *GormSchoolRepository {
	return &GormSchoolRepository{}
}

func (r *GormSchoolRepository) FindByNameOrSlug(
	ctx context.Context,
	tx *gorm.DB,
	agencyID uuid.UUID,
	name, slug string,
) (*model.School, error) {
	var s model.School
	err := tx.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Where("LOWER(name) = LOWER(?) OR slug = ?", name, slug).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find school")
	}
	return &s, nil
}

func (r *GormSchoolRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.School, error) {
	var s model.School
	err := tx.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get school")
	}
	return &s, nil
}

func (r *GormSchoolRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if err := tx.WithContext(ctx).Delete(&model.School{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "delete school")
	}
	return nil
}
