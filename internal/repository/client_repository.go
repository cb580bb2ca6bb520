package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
)

type ClientRepository interface {
	// Найти клиента по ID; forUpdate=true — с блокировкой строки.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.Client, error)
	// Найти клиента по (агентство, код). Отсутствие — (nil, nil).
	FindByCode(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string) (*model.Client, error)
	// Занят ли код в пределах агентства.
	CodeTaken(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string) (bool, error)
	// Создать клиента.
	Create(ctx context.Context, tx *gorm.DB, c *model.Client) error
	// Обновить поля клиента.
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	// Сколько клиентов потребляют слот тройки — первичный источник
	// «истинного» занятого количества (предикат ConsumesSlot в SQL).
	CountConsuming(ctx context.Context, tx *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) (int64, error)
	// Клиенты, созданные импортом в окне задачи.
	ListCreatedByImport(ctx context.Context, tx *gorm.DB, agencyID, uploaderID uuid.UUID, from, to time.Time) ([]model.Client, error)
	// Пакетное удаление по ID.
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	// Остались ли клиенты, ссылающиеся на провайдера / площадку.
	ExistsForProvider(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error)
	ExistsForSchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (bool, error)
}

type GormClientRepository struct{}

func NewGormClientRepository() *GormClientRepository {
	return &GormClientRepository{}
}

func (r *GormClientRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.Client, error) {
	q := tx.WithContext(ctx)
	if forUpdate {
		q = lockForUpdate(q)
	}
	var c model.Client
	err := q.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get client")
	}
	return &c, nil
}

func (r *GormClientRepository) FindByCode(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string) (*model.Client, error) {
	var c model.Client
	err := tx.WithContext(ctx).
		Where("agency_id = ? AND identifier_code = ?", agencyID, code).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find client by code")
	}
	return &c, nil
}

func (r *GormClientRepository) CodeTaken(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.Client{}).
		Where("agency_id = ? AND identifier_code = ?", agencyID, code).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check identifier code")
	}
	return n > 0, nil
}

func (r *GormClientRepository) Create(ctx context.Context, tx *gorm.DB, c *model.Client) error {
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		return errors.Wrap(err, "create client")
	}
	return nil
}

func (r *GormClientRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	err := tx.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", id).
		Updates(fields).
		Error
	if err != nil {
		return errors.Wrap(err, "update client fields")
	}
	return nil
}

func (r *GormClientRepository) CountConsuming(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.Client{}).
		Where("provider_id = ? AND school_id = ? AND weekday = ?", providerID, schoolID, day).
		Where("status = ? AND archived = ?", model.ClientStatusCurrent, false).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "count consuming clients")
	}
	return n, nil
}

func (r *GormClientRepository) ListCreatedByImport(
	ctx context.Context,
	tx *gorm.DB,
	agencyID, uploaderID uuid.UUID,
	from, to time.Time,
) ([]model.Client, error) {
	var rows []model.Client
	err := tx.WithContext(ctx).
		Where("agency_id = ? AND source = ? AND created_by_user_id = ?", agencyID, model.ClientSourceBulkImport, uploaderID).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list import-created clients")
	}
	return rows, nil
}

func (r *GormClientRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.Client{}).
		Error
	if err != nil {
		return errors.Wrap(err, "delete clients")
	}
	return nil
}

func (r *GormClientRepository) ExistsForProvider(ctx context.Context, tx *gorm.DB, providerID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.Client{}).
		Where("provider_id = ?", providerID).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "count provider clients")
	}
	return n > 0, nil
}

func (r *GormClientRepository) ExistsForSchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.Client{}).
		Where("school_id = ?", schoolID).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "count school clients")
	}
	return n > 0, nil
}
