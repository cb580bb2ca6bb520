package model

import (
	"time"

	"github.com/google/uuid"
)

// School — площадка (школа), на которой провайдер принимает клиентов.
// При импорте площадки разрешаются только по точному имени/слагу и
// никогда не создаются автоматически.
type School struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AgencyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_school_agency_slug"`

	Name     string `gorm:"type:varchar(255);not null"`
	Slug     string `gorm:"type:varchar(80);not null;uniqueIndex:idx_school_agency_slug"`
	District string `gorm:"type:varchar(255)"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Agency *Agency `gorm:"foreignKey:AgencyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
