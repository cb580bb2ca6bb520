package model

import (
	"time"

	"github.com/google/uuid"
)

// Типы внутренних уведомлений, которые порождает импорт.
const (
	NotificationClientBecameCurrent = "client_became_current"
	NotificationPaperworkReceived   = "paperwork_received"
)

// Notification — внутреннее уведомление. Пишется пост-коммитом в режиме
// fire-and-forget: его судьба не влияет на исход породившей операции.
type Notification struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AgencyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID   *uuid.UUID `gorm:"type:uuid;index"`

	Type     string `gorm:"type:varchar(64);not null;index"`
	Severity string `gorm:"type:varchar(16);not null;default:'info'"`
	Title    string `gorm:"type:varchar(255);not null"`
	Message  string `gorm:"type:text"`

	RelatedEntityType string     `gorm:"type:varchar(32)"`
	RelatedEntityID   *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// ClientNote — внутренняя заметка по клиенту (свободный текст из колонки
// Notes импортируемого файла). Тоже пост-коммитный побочный эффект.
type ClientNote struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorUserID *uuid.UUID `gorm:"type:uuid"`

	Body   string `gorm:"type:text;not null"`
	Source string `gorm:"type:varchar(32)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Client *Client `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
