package capacity

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/repository"
)

// AdjustResult — исход одной корректировки леджера.
type AdjustResult struct {
	// OK=false с заполненным Reason — штатный отказ, не ошибка.
	OK     bool
	Reason string

	// Доступность до и после применения дельты (после дрейф-коррекции).
	Before int
	After  int

	// Денормализованное значение разошлось с истинным и было исправлено.
	Corrected bool
}

const (
	ReasonNotScheduled = "not scheduled"
	ReasonNoSlots      = "no slots available"
)

// Adjuster — единственная точка изменения slots_available по дельте.
// Работает строго внутри транзакции вызывающего: блокировка строки и
// запись живут и умирают вместе с ней.
type Adjuster struct {
	assignments repository.AssignmentRepository
	used        UsedCounter
	log         *logrus.Logger
}

func NewAdjuster(assignments repository.AssignmentRepository, used UsedCounter, log *logrus.Logger) *Adjuster {
	return &Adjuster{assignments: assignments, used: used, log: log}
}

// AdjustSlot применяет дельту к доступности тройки (провайдер, площадка,
// день). Отрицательная дельта занимает слоты, положительная освобождает.
//
// Перед применением дельты строка сверяется с истинным потреблением и
// при расхождении исправляется — исправление персистится даже если сама
// дельта потом будет отвергнута политикой. Отсутствие строки леджера —
// не ошибка: провайдер в этот день на площадке просто не работает.
func (a *Adjuster) AdjustSlot(
	ctx context.Context,
	tx *gorm.DB,
	providerID, schoolID uuid.UUID,
	day model.Weekday,
	delta int,
	policy Policy,
) (AdjustResult, error) {
	row, err := a.assignments.FindForUpdate(ctx, tx, providerID, schoolID, day)
	if err != nil {
		return AdjustResult{}, err
	}
	if row == nil {
		return AdjustResult{OK: false, Reason: ReasonNotScheduled}, nil
	}

	used, err := a.used.CountUsed(ctx, tx, providerID, schoolID, day)
	if err != nil {
		return AdjustResult{}, err
	}

	current := row.SlotsAvailable
	expected := row.SlotsTotal - used
	corrected := false
	if expected != current {
		a.log.WithFields(logrus.Fields{
			"provider_id": providerID,
			"school_id":   schoolID,
			"weekday":     day,
			"stored":      current,
			"expected":    expected,
		}).Warn("slot availability drift corrected")
		if err := a.assignments.SetAvailability(ctx, tx, row.ID, expected); err != nil {
			return AdjustResult{}, err
		}
		current = expected
		corrected = true
	}

	next := current + delta
	if delta < 0 && next < 0 && policy == PolicyStrict {
		return AdjustResult{OK: false, Reason: ReasonNoSlots, Before: current, After: current, Corrected: corrected}, nil
	}

	if err := a.assignments.SetAvailability(ctx, tx, row.ID, next); err != nil {
		return AdjustResult{}, err
	}
	return AdjustResult{OK: true, Before: current, After: next, Corrected: corrected}, nil
}
