package model

import (
	"time"

	"github.com/google/uuid"
)

// ClientFieldChange — запись истории изменения поля клиента. Пишется
// интерактивным назначением провайдера в той же транзакции, что и само
// изменение.
type ClientFieldChange struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ClientID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ChangedByUserID *uuid.UUID `gorm:"type:uuid"`

	FieldChanged string `gorm:"type:varchar(64);not null"`
	FromValue    string `gorm:"type:varchar(255)"`
	ToValue      string `gorm:"type:varchar(255)"`
	Note         string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Client *Client `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
