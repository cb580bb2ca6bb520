package capacity

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/repository"
)

// UsedCounter — источник «истинного» занятого количества слотов для
// тройки (провайдер, площадка, день). По нему Adjuster и Provisioner
// самокорректируют денормализованную доступность.
type UsedCounter interface {
	CountUsed(ctx context.Context, tx *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) (int, error)
}

// NewUsedCounter выбирает стратегию подсчёта один раз по результату
// capability-детекции. Авторитетный источник — предикат потребления по
// таблице клиентов; именно в неё пишут импорт и интерактивное
// назначение, поэтому она в приоритете всегда, когда существует.
// Легаси-счётчик по schedule_placements — резерв исключительно для
// старых деплоев, где таблицы клиентов ещё нет.
func NewUsedCounter(caps Capabilities, clients repository.ClientRepository) UsedCounter {
	if !caps.HasClients && caps.HasLegacyPlacements {
		return &legacyPlacementCounter{}
	}
	return &clientUsedCounter{clients: clients}
}

// clientUsedCounter применяет предикат потребления слота к таблице
// клиентов (см. Client.ConsumesSlot).
type clientUsedCounter struct {
	clients repository.ClientRepository
}

func (c *clientUsedCounter) CountUsed(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (int, error) {
	n, err := c.clients.CountConsuming(ctx, tx, providerID, schoolID, day)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// legacyPlacementCounter читает schedule_placements старых деплоев.
// Статуса клиента там нет — отсекаются только отменённые размещения.
type legacyPlacementCounter struct{}

func (c *legacyPlacementCounter) CountUsed(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (int, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.SchedulePlacement{}).
		Where("provider_id = ? AND school_id = ? AND weekday = ?", providerID, schoolID, day).
		Where("status <> ?", "cancelled").
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "count legacy placements")
	}
	return int(n), nil
}
