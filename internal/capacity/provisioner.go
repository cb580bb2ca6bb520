package capacity

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/repository"
)

// Дефолтные рабочие часы, проставляемые при ленивом создании строки.
const (
	defaultStartTime = "08:00"
	defaultEndTime   = "15:00"
)

// Provisioner лениво заводит строки леджера: первое упоминание тройки
// (провайдер, площадка, день) создаёт её с дефолтной вместимостью и
// базлайном из истинного потребления. Повторный вызов идемпотентен.
type Provisioner struct {
	assignments  repository.AssignmentRepository
	used         UsedCounter
	defaultTotal int
	log          *logrus.Logger
}

func NewProvisioner(assignments repository.AssignmentRepository, used UsedCounter, defaultTotal int, log *logrus.Logger) *Provisioner {
	return &Provisioner{assignments: assignments, used: used, defaultTotal: defaultTotal, log: log}
}

// EnsureAssignment возвращает строку леджера для тройки, создавая её при
// отсутствии. Новая строка получает доступность total − used, где used —
// истинное потребление на момент создания: она может родиться сразу
// отрицательной, и это корректно. Существующей строке бэкфиллятся только
// часы и активность; slots_available провижининг не трогает никогда.
func (p *Provisioner) EnsureAssignment(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
) (*model.SchoolAssignment, error) {
	row, err := p.assignments.FindForUpdate(ctx, tx, providerID, schoolID, day)
	if err != nil {
		return nil, err
	}
	if row != nil {
		fields := map[string]any{}
		if row.StartTime == "" {
			fields["start_time"] = defaultStartTime
			row.StartTime = defaultStartTime
		}
		if row.EndTime == "" {
			fields["end_time"] = defaultEndTime
			row.EndTime = defaultEndTime
		}
		if !row.IsActive {
			fields["is_active"] = true
			row.IsActive = true
		}
		if len(fields) > 0 {
			if err := p.assignments.UpdateFields(ctx, tx, row.ID, fields); err != nil {
				return nil, err
			}
		}
		return row, nil
	}

	used, err := p.used.CountUsed(ctx, tx, providerID, schoolID, day)
	if err != nil {
		return nil, err
	}

	row = &model.SchoolAssignment{
		ID:             uuid.New(),
		ProviderID:     providerID,
		SchoolID:       schoolID,
		Weekday:        day,
		SlotsTotal:     p.defaultTotal,
		SlotsAvailable: p.defaultTotal - used,
		StartTime:      defaultStartTime,
		EndTime:        defaultEndTime,
		IsActive:       true,
	}
	if err := p.assignments.Create(ctx, tx, row); err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"provider_id": providerID,
		"school_id":   schoolID,
		"weekday":     day,
		"total":       row.SlotsTotal,
		"available":   row.SlotsAvailable,
	}).Info("capacity assignment provisioned")
	return row, nil
}
