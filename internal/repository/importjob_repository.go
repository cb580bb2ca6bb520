package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/agency-platform/internal/model"
)

type ImportJobRepository interface {
	// Создать заголовок задания импорта.
	CreateJob(ctx context.Context, tx *gorm.DB, job *model.ImportJob) error
	// Найти задание по ID. Отсутствие — (nil, nil).
	GetJob(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ImportJob, error)
	// Записать результат строки. Повторная запись той же (job_id, row_number)
	// перезаписывает статус и сообщение, а не падает на уникальном индексе.
	UpsertRow(ctx context.Context, tx *gorm.DB, row *model.ImportJobRow) error
	// Завершить задание: проставить finished_at и счётчики.
	Finish(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, success, failed int) error
	// Строки задания в порядке номеров.
	ListRows(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]model.ImportJobRow, error)
}

type GormImportJobRepository struct{}

func NewGormImportJobRepository() *GormImportJobRepository {
	return &GormImportJobRepository{}
}

func (r *GormImportJobRepository) CreateJob(ctx context.Context, tx *gorm.DB, job *model.ImportJob) error {
	if err := tx.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrap(err, "create import job")
	}
	return nil
}

func (r *GormImportJobRepository) GetJob(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ImportJob, error) {
	var job model.ImportJob
	err := tx.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get import job")
	}
	return &job, nil
}

func (r *GormImportJobRepository) UpsertRow(ctx context.Context, tx *gorm.DB, row *model.ImportJobRow) error {
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "row_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "message", "entity_ids"}),
	}).Create(row).Error
	if err != nil {
		return errors.Wrap(err, "upsert import row")
	}
	return nil
}

func (r *GormImportJobRepository) Finish(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, success, failed int) error {
	now := time.Now().UTC()
	err := tx.WithContext(ctx).Model(&model.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"finished_at":  &now,
			"success_rows": success,
			"failed_rows":  failed,
		}).Error
	if err != nil {
		return errors.Wrap(err, "finish import job")
	}
	return nil
}

func (r *GormImportJobRepository) ListRows(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]model.ImportJobRow, error) {
	var rows []model.ImportJobRow
	err := tx.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("row_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list import rows")
	}
	return rows, nil
}

// RowEntityIDs собирает JSON со ссылками на созданные строкой сущности.
func RowEntityIDs(clientID, providerID, schoolID *uuid.UUID) datatypes.JSON {
	payload := map[string]any{}
	if clientID != nil {
		payload["client_id"] = clientID.String()
	}
	if providerID != nil {
		payload["provider_id"] = providerID.String()
	}
	if schoolID != nil {
		payload["school_id"] = schoolID.String()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
