package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider — специалист агентства, принимающий клиентов на площадках.
// Имя хранится раздельно: индекс имён при импорте сверяет именно
// первый/последний токены, а не отображаемую строку.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AgencyID uuid.UUID `gorm:"type:uuid;not null;index"`

	FirstName   string `gorm:"type:varchar(128);not null"`
	LastName    string `gorm:"type:varchar(128);not null"`
	DisplayName string `gorm:"type:varchar(255)"`

	// Аббревиатура квалификации (LPC, LCSW и т.п.) — участвует только
	// в отображении, из входных имён такие токены вырезаются.
	Credential string `gorm:"type:varchar(32)"`

	// Плейсхолдер-почта вида provider+xxxx@import.invalid означает запись,
	// заведённую старым импортом, — кандидата на уборку при откате.
	Email string `gorm:"type:varchar(255);not null;uniqueIndex"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Agency *Agency `gorm:"foreignKey:AgencyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
