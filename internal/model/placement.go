package model

import (
	"time"

	"github.com/google/uuid"
)

// SchedulePlacement — легаси-таблица размещений из старых деплоев.
// Используется только как резервный источник «истинного» потребления
// слотов, когда он присутствует в базе; в AutoMigrate сознательно не
// включается — её наличие определяет capability-детектор.
type SchedulePlacement struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ClientID   *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SchoolID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Weekday    Weekday    `gorm:"type:varchar(16);not null"`

	// В легаси-схеме статуса клиента нет; отсечь можно только отменённые
	// размещения.
	Status string `gorm:"type:varchar(32);not null;default:'active'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (SchedulePlacement) TableName() string { return "schedule_placements" }
