package bulkimport

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/capacity"
	"github.com/Leganyst/agency-platform/internal/model"
)

// Суффикс плейсхолдер-почты провайдеров, заведённых старыми импортами.
const placeholderEmailDomain = "@import.invalid"

type slotTuple struct {
	providerID uuid.UUID
	schoolID   uuid.UUID
	day        model.Weekday
}

// UndoSummary — итог отката (или его прогноз при dryRun).
type UndoSummary struct {
	JobID  uuid.UUID
	DryRun bool

	EligibleClients  int
	SlotsReleased    int
	ClientsDeleted   int
	ProvidersCleaned int
	SchoolsCleaned   int
}

// UndoImport откатывает завершённое задание импорта: удаляет только
// клиентов, СОЗДАННЫХ этим заданием (тег источника + загрузивший +
// created_at внутри окна [start, finish]), предварительно освобождая
// занятые ими слоты. Обновления существовавших клиентов не откатываются:
// снапшота «до» не существует. Задание без finished_at отвергается.
//
// dryRun выполняет всю читающую часть, ничего не меняя, и безопасен для
// повторных вызовов.
func (e *Engine) UndoImport(ctx context.Context, agencyID, jobID uuid.UUID, dryRun bool) (UndoSummary, error) {
	summary := UndoSummary{JobID: jobID, DryRun: dryRun}

	job, err := e.jobs.GetJob(ctx, e.db, jobID)
	if err != nil {
		return summary, err
	}
	if job == nil || job.AgencyID != agencyID {
		return summary, ErrJobNotFound
	}
	if job.FinishedAt == nil {
		return summary, ErrJobStillRunning
	}

	eligible, err := e.clients.ListCreatedByImport(ctx, e.db, agencyID, job.UploadedByUserID, job.StartedAt, *job.FinishedAt)
	if err != nil {
		return summary, err
	}
	summary.EligibleClients = len(eligible)

	consuming := 0
	for i := range eligible {
		if eligible[i].ConsumesSlot() {
			consuming++
		}
	}

	if dryRun {
		summary.SlotsReleased = consuming
		return summary, nil
	}

	undoLog := e.log.WithFields(logrus.Fields{
		"job_id":    jobID,
		"agency_id": agencyID,
		"eligible":  len(eligible),
	})

	// Освобождения агрегируются по тройке и применяются одним вызовом:
	// дрейф-коррекция в Adjuster пересчитывает занятость по ещё не
	// удалённым клиентам, и положительные дельты поштучно она бы
	// откатывала.
	ids := make([]uuid.UUID, 0, len(eligible))
	releases := map[slotTuple]int{}
	for i := range eligible {
		c := &eligible[i]
		ids = append(ids, c.ID)
		if c.ConsumesSlot() {
			releases[slotTuple{*c.ProviderID, *c.SchoolID, *c.Weekday}]++
		}
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for tuple, n := range releases {
			res, err := e.adjuster.AdjustSlot(ctx, tx, tuple.providerID, tuple.schoolID, tuple.day, +n, capacity.PolicyAllowOverbook)
			if err != nil {
				return err
			}
			if res.OK {
				summary.SlotsReleased += n
			}
		}
		return e.clients.DeleteByIDs(ctx, tx, ids)
	})
	if err != nil {
		return summary, err
	}
	summary.ClientsDeleted = len(ids)
	undoLog.WithField("deleted", len(ids)).Info("import undone")

	// Вторичная уборка изолирована от основного отката: каждая её
	// неудача глотается с логом и не трогает уже сделанное.
	summary.ProvidersCleaned = e.cleanupPlaceholderProviders(ctx, eligible, undoLog)
	summary.SchoolsCleaned = e.cleanupOrphanSchools(ctx, job, eligible, undoLog)
	return summary, nil
}

// cleanupPlaceholderProviders убирает провайдеров с плейсхолдер-почтой,
// на которых после отката не ссылается ни один клиент. Консервативно:
// настоящих провайдеров (без плейсхолдера) не трогаем никогда.
func (e *Engine) cleanupPlaceholderProviders(ctx context.Context, deleted []model.Client, log *logrus.Entry) int {
	cleaned := 0
	for _, id := range distinctProviderIDs(deleted) {
		prov, err := e.providers.GetByID(ctx, e.db, id)
		if err != nil || prov == nil {
			continue
		}
		if !strings.HasSuffix(prov.Email, placeholderEmailDomain) {
			continue
		}
		referenced, err := e.clients.ExistsForProvider(ctx, e.db, id)
		if err != nil || referenced {
			continue
		}
		err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := e.assignments.DeleteByProvider(ctx, tx, id); err != nil {
				return err
			}
			return e.providers.Delete(ctx, tx, id)
		})
		if err != nil {
			log.WithError(err).WithField("provider_id", id).Warn("placeholder provider cleanup skipped")
			continue
		}
		cleaned++
	}
	return cleaned
}

// cleanupOrphanSchools убирает площадки, созданные в окне задания и ни
// одним клиентом или строкой расписания больше не используемые.
func (e *Engine) cleanupOrphanSchools(ctx context.Context, job *model.ImportJob, deleted []model.Client, log *logrus.Entry) int {
	cleaned := 0
	for _, id := range distinctSchoolIDs(deleted) {
		school, err := e.schools.GetByID(ctx, e.db, id)
		if err != nil || school == nil {
			continue
		}
		if school.CreatedAt.Before(job.StartedAt) || school.CreatedAt.After(*job.FinishedAt) {
			continue
		}
		hasClients, err := e.clients.ExistsForSchool(ctx, e.db, id)
		if err != nil || hasClients {
			continue
		}
		hasSchedule, err := e.assignments.ExistsForSchool(ctx, e.db, id)
		if err != nil || hasSchedule {
			continue
		}
		if err := e.schools.Delete(ctx, e.db, id); err != nil {
			log.WithError(err).WithField("school_id", id).Warn("orphan school cleanup skipped")
			continue
		}
		cleaned++
	}
	return cleaned
}

func distinctProviderIDs(clients []model.Client) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for i := range clients {
		if clients[i].ProviderID == nil {
			continue
		}
		id := *clients[i].ProviderID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func distinctSchoolIDs(clients []model.Client) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for i := range clients {
		if clients[i].SchoolID == nil {
			continue
		}
		id := *clients[i].SchoolID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
