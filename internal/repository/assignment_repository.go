package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/agency-platform/internal/model"
)

type AssignmentRepository interface {
	// Найти строку леджера по тройке с блокировкой FOR UPDATE.
	// Отсутствие строки — не ошибка: возвращается (nil, nil).
	FindForUpdate(ctx context.Context, tx *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) (*model.SchoolAssignment, error)
	// Найти строку без блокировки.
	Find(ctx context.Context, tx *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) (*model.SchoolAssignment, error)
	// Создать строку леджера.
	Create(ctx context.Context, tx *gorm.DB, a *model.SchoolAssignment) error
	// Записать новое значение доступных слотов.
	SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available int) error
	// Обновить произвольные поля строки (бэкфилл часов, активность).
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	// Активные строки провайдера по всем площадкам и дням, с блокировкой.
	ListActiveByProviderForUpdate(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) ([]model.SchoolAssignment, error)
	// Есть ли у площадки хоть одна строка расписания.
	ExistsForSchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (bool, error)
	// Удалить все строки провайдера (уборка плейсхолдеров при откате).
	DeleteByProvider(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) error
}

type GormAssignmentRepository struct{}

func NewGormAssignmentRepository() *GormAssignmentRepository {
	return &GormAssignmentRepository{}
}

// lockForUpdate навешивает FOR UPDATE только там, где диалект его умеет.
// В тестах на sqlite база живёт на одном соединении, и блокировка строк
// не нужна; sqlite такой синтаксис не разбирает вовсе.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *GormAssignmentRepository) FindForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (*model.SchoolAssignment, error) {
	var a model.SchoolAssignment
	err := lockForUpdate(tx.WithContext(ctx)).
		Where("provider_id = ? AND school_id = ? AND weekday = ?", providerID, schoolID, day).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find assignment for update")
	}
	return &a, nil
}

func (r *GormAssignmentRepository) Find(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (*model.SchoolAssignment, error) {
	var a model.SchoolAssignment
	err := tx.WithContext(ctx).
		Where("provider_id = ? AND school_id = ? AND weekday = ?", providerID, schoolID, day).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find assignment")
	}
	return &a, nil
}

func (r *GormAssignmentRepository) Create(ctx context.Context, tx *gorm.DB, a *model.SchoolAssignment) error {
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		return errors.Wrap(err, "create assignment")
	}
	return nil
}

func (r *GormAssignmentRepository) SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available int) error {
	err := tx.WithContext(ctx).
		Model(&model.SchoolAssignment{}).
		Where("id = ?", id).
		Update("slots_available", available).
		Error
	if err != nil {
		return errors.Wrap(err, "set availability")
	}
	return nil
}

func (r *GormAssignmentRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	err := tx.WithContext(ctx).
		Model(&model.SchoolAssignment{}).
		Where("id = ?", id).
		Updates(fields).
		Error
	if err != nil {
		return errors.Wrap(err, "update assignment fields")
	}
	return nil
}

func (r *GormAssignmentRepository) ListActiveByProviderForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	providerID uuid.UUID,
) ([]model.SchoolAssignment, error) {
	var rows []model.SchoolAssignment
	err := lockForUpdate(tx.WithContext(ctx)).
		Where("provider_id = ? AND is_active = ?", providerID, true).
		Order("school_id ASC, weekday ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list provider assignments")
	}
	return rows, nil
}

func (r *GormAssignmentRepository) ExistsForSchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.SchoolAssignment{}).
		Where("school_id = ?", schoolID).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "count school assignments")
	}
	return n > 0, nil
}

func (r *GormAssignmentRepository) DeleteByProvider(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) error {
	err := tx.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Delete(&model.SchoolAssignment{}).
		Error
	if err != nil {
		return errors.Wrap(err, "delete provider assignments")
	}
	return nil
}
