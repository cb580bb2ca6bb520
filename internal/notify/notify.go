package notify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
)

// Notifier — внутренние уведомления, порождаемые импортом. Вызываются
// строго после коммита строки, в режиме fire-and-forget: ошибка здесь
// логируется вызывающим и никогда не меняет исход операции.
type Notifier interface {
	// Клиент стал current в результате импорта.
	ClientBecameCurrent(ctx context.Context, agencyID, clientID uuid.UUID, code string) error
	// По клиенту получены документы.
	PaperworkReceived(ctx context.Context, agencyID, clientID uuid.UUID, code string) error
}

// Notes — внутренние заметки по клиенту (колонка Notes файла импорта).
type Notes interface {
	Add(ctx context.Context, clientID uuid.UUID, authorID *uuid.UUID, body, source string) error
}

// GormNotifier пишет уведомления напрямую в базу. Держит собственный
// *gorm.DB: уведомления живут вне транзакции породившей их строки.
type GormNotifier struct {
	db *gorm.DB
}

func NewGormNotifier(db *gorm.DB) *GormNotifier {
	return &GormNotifier{db: db}
}

func (n *GormNotifier) ClientBecameCurrent(ctx context.Context, agencyID, clientID uuid.UUID, code string) error {
	return n.create(ctx, &model.Notification{
		ID:                uuid.New(),
		AgencyID:          agencyID,
		Type:              model.NotificationClientBecameCurrent,
		Severity:          "info",
		Title:             "Client became current",
		Message:           "Client " + code + " is now current after import",
		RelatedEntityType: "client",
		RelatedEntityID:   &clientID,
	})
}

func (n *GormNotifier) PaperworkReceived(ctx context.Context, agencyID, clientID uuid.UUID, code string) error {
	return n.create(ctx, &model.Notification{
		ID:                uuid.New(),
		AgencyID:          agencyID,
		Type:              model.NotificationPaperworkReceived,
		Severity:          "info",
		Title:             "Paperwork received",
		Message:           "Paperwork received for client " + code,
		RelatedEntityType: "client",
		RelatedEntityID:   &clientID,
	})
}

func (n *GormNotifier) create(ctx context.Context, row *model.Notification) error {
	if err := n.db.WithContext(ctx).Create(row).Error; err != nil {
		return errors.Wrap(err, "create notification")
	}
	return nil
}

type GormNotes struct {
	db *gorm.DB
}

func NewGormNotes(db *gorm.DB) *GormNotes {
	return &GormNotes{db: db}
}

func (s *GormNotes) Add(ctx context.Context, clientID uuid.UUID, authorID *uuid.UUID, body, source string) error {
	note := &model.ClientNote{
		ID:           uuid.New(),
		ClientID:     clientID,
		AuthorUserID: authorID,
		Body:         body,
		Source:       source,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return errors.Wrap(err, "create client note")
	}
	return nil
}
