package model

import (
	"time"

	"github.com/google/uuid"
)

// SchoolAssignment — строка леджера ёмкости: сколько слотов провайдер
// держит на площадке в конкретный день недели. Не больше одной строки
// на тройку (провайдер, площадка, день).
//
// SlotsAvailable — знаковое: отрицательное значение означает овербукинг
// и является валидным состоянием, а не ошибкой. Менять его имеют право
// только Adjuster и LeaveReconciler; провижининг существующую строку
// не трогает.
type SchoolAssignment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_tuple"`
	SchoolID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_tuple"`
	Weekday    Weekday   `gorm:"type:varchar(16);not null;uniqueIndex:idx_assignment_tuple"`

	SlotsTotal     int `gorm:"not null;default:0"`
	SlotsAvailable int `gorm:"not null;default:0"`

	// Рабочие часы в формате "HH:MM"; заполняются дефолтами при ленивом
	// создании и могут быть уточнены позже.
	StartTime string `gorm:"type:varchar(5)"`
	EndTime   string `gorm:"type:varchar(5)"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	School   *School   `gorm:"foreignKey:SchoolID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
