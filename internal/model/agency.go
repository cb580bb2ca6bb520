package model

import (
	"time"

	"github.com/google/uuid"
)

// Agency — арендатор платформы (агентство). Все прикладные данные
// партиционируются по AgencyID.
type Agency struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name string `gorm:"type:varchar(255);not null"`
	Slug string `gorm:"type:varchar(80);not null;uniqueIndex"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
