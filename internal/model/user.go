package model

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись сотрудника агентства. Ядру нужна только
// идентичность загрузившего импорт; аутентификация — вне ядра.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string `gorm:"type:varchar(128)"`
	LastName  string `gorm:"type:varchar(128)"`
	Role      string `gorm:"type:varchar(32);not null;default:'staff'"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
