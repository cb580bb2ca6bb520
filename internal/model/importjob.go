package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Статус строки импорта.
type ImportRowStatus string

const (
	ImportRowStatusSuccess ImportRowStatus = "success"
	ImportRowStatusFailed  ImportRowStatus = "failed"
)

// ImportJob — заголовок одной загрузки. Создаётся один раз до обработки
// строк, закрывается один раз после: FinishedAt == nil означает, что
// задача ещё идёт (или процесс упал посередине) — откат такой задачи
// запрещён.
type ImportJob struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AgencyID         uuid.UUID `gorm:"type:uuid;not null;index"`
	UploadedByUserID uuid.UUID `gorm:"type:uuid;not null"`

	FileName string `gorm:"type:varchar(255);not null"`

	StartedAt  time.Time  `gorm:"type:timestamp with time zone;not null"`
	FinishedAt *time.Time `gorm:"type:timestamp with time zone"`

	TotalRows   int `gorm:"not null;default:0"`
	SuccessRows int `gorm:"not null;default:0"`
	FailedRows  int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Agency *Agency `gorm:"foreignKey:AgencyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// ImportJobRow — исход одной строки импорта. Пара (JobID, RowNumber)
// уникальна; повторная обработка того же номера перезаписывает исход.
// Вместе с ImportJob образует постоянный аудиторский след.
type ImportJobRow struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	JobID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_job_row"`
	RowNumber int       `gorm:"not null;uniqueIndex:idx_job_row"`

	Status  ImportRowStatus `gorm:"type:varchar(16);not null"`
	Message string          `gorm:"type:text"`

	// Идентификаторы затронутых сущностей (client/provider/school) в JSON.
	EntityIDs datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Job *ImportJob `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
