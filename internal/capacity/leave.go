package capacity

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/repository"
)

// LeaveReconciler обслуживает уход провайдера в отпуск и возвращение.
// В отличие от Adjuster он намеренно клампает доступность на нуле:
// уход и возвращение — административные операции, овербукинг они не
// фиксируют.
type LeaveReconciler struct {
	db          *gorm.DB
	assignments repository.AssignmentRepository
	used        UsedCounter
	log         *logrus.Logger
}

func NewLeaveReconciler(db *gorm.DB, assignments repository.AssignmentRepository, used UsedCounter, log *logrus.Logger) *LeaveReconciler {
	return &LeaveReconciler{db: db, assignments: assignments, used: used, log: log}
}

// ZeroOut обнуляет доступность всех активных строк провайдера: на время
// отпуска новых клиентов к нему не записать. Totals не трогаются — они
// понадобятся при возвращении.
func (l *LeaveReconciler) ZeroOut(ctx context.Context, providerID uuid.UUID) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := l.assignments.ListActiveByProviderForUpdate(ctx, tx, providerID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if row.SlotsAvailable == 0 {
				continue
			}
			if err := l.assignments.SetAvailability(ctx, tx, row.ID, 0); err != nil {
				return err
			}
		}
		l.log.WithFields(logrus.Fields{
			"provider_id": providerID,
			"rows":        len(rows),
		}).Info("provider slots zeroed for leave")
		return nil
	})
}

// ReconcileOnReturn восстанавливает доступность по формуле
// max(0, total − used) для каждой активной строки провайдера. Кламп на
// нуле здесь сознательный: если за время отпуска тройка оказалась
// переподписана, возвращение не должно рисовать отрицательный остаток —
// это территория Adjuster.
func (l *LeaveReconciler) ReconcileOnReturn(ctx context.Context, providerID uuid.UUID) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := l.assignments.ListActiveByProviderForUpdate(ctx, tx, providerID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			used, err := l.used.CountUsed(ctx, tx, row.ProviderID, row.SchoolID, row.Weekday)
			if err != nil {
				return err
			}
			avail := row.SlotsTotal - used
			if avail < 0 {
				avail = 0
			}
			if avail == row.SlotsAvailable {
				continue
			}
			if err := l.assignments.SetAvailability(ctx, tx, row.ID, avail); err != nil {
				return err
			}
		}
		l.log.WithFields(logrus.Fields{
			"provider_id": providerID,
			"rows":        len(rows),
		}).Info("provider slots reconciled after leave")
		return nil
	})
}
