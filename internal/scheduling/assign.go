package scheduling

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/capacity"
	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/repository"
)

var (
	ErrClientNotFound = errors.New("client not found")
	// День обязателен, когда клиенту с уже назначенным провайдером
	// назначают провайдера заново.
	ErrWeekdayRequired = errors.New("weekday is required when reassigning a provider")
	// День без провайдера не имеет смысла.
	ErrProviderRequired = errors.New("weekday cannot be set without a provider")
	// Свободных слотов нет; вся операция откачена.
	ErrCapacityExhausted = errors.New("no slots available for the requested assignment")
)

// AssignParams — параметры интерактивного назначения провайдера.
// Nil ProviderID снимает назначение вместе с днём.
type AssignParams struct {
	ClientID   uuid.UUID
	ProviderID *uuid.UUID
	Weekday    *model.Weekday
	ActorID    *uuid.UUID
}

// Service — интерактивный (одноклиентный) путь управления назначениями.
// В отличие от пакетного импорта работает в строгой политике: нехватка
// ёмкости откатывает операцию целиком.
type Service struct {
	db          *gorm.DB
	clients     repository.ClientRepository
	adjuster    *capacity.Adjuster
	provisioner *capacity.Provisioner
	log         *logrus.Logger
}

func NewService(
	db *gorm.DB,
	clients repository.ClientRepository,
	adjuster *capacity.Adjuster,
	provisioner *capacity.Provisioner,
	log *logrus.Logger,
) *Service {
	return &Service{db: db, clients: clients, adjuster: adjuster, provisioner: provisioner, log: log}
}

// AssignProvider назначает (или снимает) провайдера и день клиенту.
// Клиент блокируется в той же транзакции, что и леджер: диф потребления
// считается по заблокированному состоянию. Занятие слота идёт под
// PolicyStrict — при нехватке ёмкости транзакция откатывается и наружу
// уходит ErrCapacityExhausted.
func (s *Service) AssignProvider(ctx context.Context, p AssignParams) error {
	if p.Weekday != nil && p.ProviderID == nil {
		return ErrProviderRequired
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := s.clients.GetByID(ctx, tx, p.ClientID, true)
		if err != nil {
			return err
		}
		if client == nil {
			return ErrClientNotFound
		}

		if p.ProviderID != nil && client.ProviderID != nil && p.Weekday == nil {
			return ErrWeekdayRequired
		}

		next := *client
		next.ProviderID = p.ProviderID
		if p.ProviderID == nil {
			next.Weekday = nil
		} else if p.Weekday != nil {
			next.Weekday = p.Weekday
		}

		oldConsumes := client.ConsumesSlot()
		newConsumes := next.ConsumesSlot()
		changed := !sameTriple(client, &next)

		if oldConsumes && (changed || !newConsumes) {
			res, err := s.adjuster.AdjustSlot(ctx, tx, *client.ProviderID, *client.SchoolID, *client.Weekday, +1, capacity.PolicyAllowOverbook)
			if err != nil {
				return err
			}
			if !res.OK {
				// Строки леджера нет — освобождать нечего.
				s.log.WithFields(logrus.Fields{
					"client_id": client.ID,
					"reason":    res.Reason,
				}).Warn("slot release skipped")
			}
		}

		if newConsumes && (changed || !oldConsumes) {
			if _, err := s.provisioner.EnsureAssignment(ctx, tx, *next.ProviderID, *next.SchoolID, *next.Weekday); err != nil {
				return err
			}
			res, err := s.adjuster.AdjustSlot(ctx, tx, *next.ProviderID, *next.SchoolID, *next.Weekday, -1, capacity.PolicyStrict)
			if err != nil {
				return err
			}
			if !res.OK {
				return ErrCapacityExhausted
			}
		}

		fields := map[string]any{
			"provider_id": next.ProviderID,
			"weekday":     next.Weekday,
		}
		if err := s.clients.UpdateFields(ctx, tx, client.ID, fields); err != nil {
			return err
		}

		if err := s.recordHistory(ctx, tx, client, &next, p.ActorID); err != nil {
			return err
		}
		return nil
	})
}

func sameTriple(a, b *model.Client) bool {
	if a.ProviderID == nil || b.ProviderID == nil {
		return a.ProviderID == nil && b.ProviderID == nil
	}
	if a.SchoolID == nil || b.SchoolID == nil {
		return a.SchoolID == nil && b.SchoolID == nil
	}
	if a.Weekday == nil || b.Weekday == nil {
		return a.Weekday == nil && b.Weekday == nil
	}
	return *a.ProviderID == *b.ProviderID && *a.SchoolID == *b.SchoolID && *a.Weekday == *b.Weekday
}

// recordHistory пишет строки истории для изменившихся полей.
func (s *Service) recordHistory(ctx context.Context, tx *gorm.DB, old, next *model.Client, actorID *uuid.UUID) error {
	var changes []model.ClientFieldChange
	if uuidPtrString(old.ProviderID) != uuidPtrString(next.ProviderID) {
		changes = append(changes, model.ClientFieldChange{
			ID:              uuid.New(),
			ClientID:        old.ID,
			ChangedByUserID: actorID,
			FieldChanged:    "provider_id",
			FromValue:       uuidPtrString(old.ProviderID),
			ToValue:         uuidPtrString(next.ProviderID),
		})
	}
	if weekdayPtrString(old.Weekday) != weekdayPtrString(next.Weekday) {
		changes = append(changes, model.ClientFieldChange{
			ID:              uuid.New(),
			ClientID:        old.ID,
			ChangedByUserID: actorID,
			FieldChanged:    "weekday",
			FromValue:       weekdayPtrString(old.Weekday),
			ToValue:         weekdayPtrString(next.Weekday),
		})
	}
	for i := range changes {
		if err := tx.WithContext(ctx).Create(&changes[i]).Error; err != nil {
			return errors.Wrap(err, "record field change")
		}
	}
	return nil
}

func uuidPtrString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func weekdayPtrString(d *model.Weekday) string {
	if d == nil {
		return ""
	}
	return string(*d)
}
