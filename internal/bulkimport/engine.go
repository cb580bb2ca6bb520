package bulkimport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/capacity"
	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/notify"
	"github.com/Leganyst/agency-platform/internal/repository"
)

// JobSummary — итог выполненного задания импорта.
// SuccessRows + FailedRows == TotalRows всегда.
type JobSummary struct {
	JobID       uuid.UUID
	TotalRows   int
	SuccessRows int
	FailedRows  int
}

// Engine — движок пакетного импорта и его отката. Строки обрабатываются
// строго последовательно, каждая в собственной короткой транзакции:
// отказ одной строки не трогает ни предыдущие, ни последующие.
type Engine struct {
	db          *gorm.DB
	clients     repository.ClientRepository
	providers   repository.ProviderRepository
	schools     repository.SchoolRepository
	jobs        repository.ImportJobRepository
	assignments repository.AssignmentRepository
	provisioner *capacity.Provisioner
	adjuster    *capacity.Adjuster
	codes       *CodeGenerator
	notifier    notify.Notifier
	notes       notify.Notes
	log         *logrus.Logger
}

func NewEngine(
	db *gorm.DB,
	clients repository.ClientRepository,
	providers repository.ProviderRepository,
	schools repository.SchoolRepository,
	jobs repository.ImportJobRepository,
	assignments repository.AssignmentRepository,
	provisioner *capacity.Provisioner,
	adjuster *capacity.Adjuster,
	codes *CodeGenerator,
	notifier notify.Notifier,
	notes notify.Notes,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		db:          db,
		clients:     clients,
		providers:   providers,
		schools:     schools,
		jobs:        jobs,
		assignments: assignments,
		provisioner: provisioner,
		adjuster:    adjuster,
		codes:       codes,
		notifier:    notifier,
		notes:       notes,
		log:         log,
	}
}

// RunImport выполняет задание импорта целиком: заголовок, индекс имён
// провайдеров (один на задание), построчная обработка, футер со
// счётчиками. Отказ строки никогда не прерывает пакет.
func (e *Engine) RunImport(
	ctx context.Context,
	agencyID, uploaderID uuid.UUID,
	fileName string,
	rows []ParsedImportRow,
) (JobSummary, error) {
	job := &model.ImportJob{
		ID:               uuid.New(),
		AgencyID:         agencyID,
		UploadedByUserID: uploaderID,
		FileName:         fileName,
		StartedAt:        time.Now().UTC(),
		TotalRows:        len(rows),
	}
	if err := e.jobs.CreateJob(ctx, e.db, job); err != nil {
		return JobSummary{}, err
	}

	provs, err := e.providers.ListByAgency(ctx, e.db, agencyID)
	if err != nil {
		return JobSummary{}, err
	}
	idx := BuildProviderIndex(provs)

	jobLog := e.log.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"agency_id": agencyID,
		"rows":      len(rows),
	})
	jobLog.Info("bulk import started")

	success, failed := 0, 0
	for i := range rows {
		if e.processRow(ctx, job, idx, &rows[i]) {
			success++
		} else {
			failed++
		}
	}

	if err := e.jobs.Finish(ctx, e.db, job.ID, success, failed); err != nil {
		return JobSummary{}, err
	}
	jobLog.WithFields(logrus.Fields{
		"success": success,
		"failed":  failed,
	}).Info("bulk import finished")

	return JobSummary{
		JobID:       job.ID,
		TotalRows:   len(rows),
		SuccessRows: success,
		FailedRows:  failed,
	}, nil
}

// rowEffects — что успешная строка сделала и какие пост-коммитные
// побочные эффекты ей причитаются.
type rowEffects struct {
	warnings []string

	clientID   *uuid.UUID
	providerID *uuid.UUID
	schoolID   *uuid.UUID
	code       string

	becameCurrent     bool
	paperworkReceived bool
}

// processRow обрабатывает одну строку в собственной транзакции и
// возвращает признак успеха. Любая ошибка откатывает строку, а отказной
// исход пишется отдельным стейтментом уже вне откаченной транзакции.
func (e *Engine) processRow(ctx context.Context, job *model.ImportJob, idx *ProviderIndex, row *ParsedImportRow) bool {
	rowLog := e.log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"row":    row.RowNumber,
	})

	var fx rowEffects
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		effects, err := e.applyRow(ctx, tx, job, idx, row)
		if err != nil {
			return err
		}
		fx = effects
		return e.jobs.UpsertRow(ctx, tx, &model.ImportJobRow{
			ID:        uuid.New(),
			JobID:     job.ID,
			RowNumber: row.RowNumber,
			Status:    model.ImportRowStatusSuccess,
			Message:   strings.Join(effects.warnings, "; "),
			EntityIDs: repository.RowEntityIDs(effects.clientID, effects.providerID, effects.schoolID),
		})
	})
	if err != nil {
		rowLog.WithError(err).Warn("import row failed")
		outcome := &model.ImportJobRow{
			ID:        uuid.New(),
			JobID:     job.ID,
			RowNumber: row.RowNumber,
			Status:    model.ImportRowStatusFailed,
			Message:   err.Error(),
		}
		if upErr := e.jobs.UpsertRow(ctx, e.db, outcome); upErr != nil {
			rowLog.WithError(upErr).Error("failed to persist row outcome")
		}
		return false
	}

	e.fireSideEffects(ctx, job, row, &fx, rowLog)
	return true
}

// applyRow — тело строки внутри транзакции: резолв площадки и
// провайдера, код клиента, диф потребления, вставка или обновление.
func (e *Engine) applyRow(
	ctx context.Context,
	tx *gorm.DB,
	job *model.ImportJob,
	idx *ProviderIndex,
	row *ParsedImportRow,
) (rowEffects, error) {
	var fx rowEffects

	if err := row.Validate(); err != nil {
		return fx, err
	}

	var day *model.Weekday
	if row.Weekday != "" {
		if d, ok := model.ParseWeekday(row.Weekday); ok {
			day = &d
		} else {
			fx.warnings = append(fx.warnings, fmt.Sprintf("unrecognized weekday %q ignored", row.Weekday))
		}
	}

	// Площадки импортом не создаются: нераспознанное имя — отказ строки.
	school, err := e.schools.FindByNameOrSlug(ctx, tx, job.AgencyID, row.SiteName, slugify(row.SiteName))
	if err != nil {
		return fx, err
	}
	if school == nil {
		return fx, fmt.Errorf("site %q: %w", row.SiteName, ErrSiteNotFound)
	}
	fx.schoolID = &school.ID

	var prov *model.Provider
	if row.ProviderName != "" {
		prov = idx.Match(row.ProviderName)
		if prov == nil {
			fx.warnings = append(fx.warnings, fmt.Sprintf("provider %q not matched; client imported unassigned", row.ProviderName))
		} else {
			fx.providerID = &prov.ID
		}
	}

	if prov != nil && day != nil {
		if _, err := e.provisioner.EnsureAssignment(ctx, tx, prov.ID, school.ID, *day); err != nil {
			return fx, err
		}
	}

	code, err := e.resolveCode(ctx, tx, job.AgencyID, row.IdentifierCode)
	if err != nil {
		return fx, err
	}

	fx.code = code

	existing, err := e.clients.FindByCode(ctx, tx, job.AgencyID, code)
	if err != nil {
		return fx, err
	}

	if existing == nil {
		return e.insertClient(ctx, tx, job, row, fx, code, school, prov, day)
	}
	return e.updateClient(ctx, tx, row, fx, existing, school, prov, day)
}

// insertClient создаёт нового клиента и занимает слот, если новая
// запись его потребляет.
func (e *Engine) insertClient(
	ctx context.Context,
	tx *gorm.DB,
	job *model.ImportJob,
	row *ParsedImportRow,
	fx rowEffects,
	code string,
	school *model.School,
	prov *model.Provider,
	day *model.Weekday,
) (rowEffects, error) {
	status := model.ClientStatusPending
	if row.Status != "" {
		status = model.ClientStatus(row.Status)
	}

	client := &model.Client{
		ID:              uuid.New(),
		AgencyID:        job.AgencyID,
		IdentifierCode:  code,
		SchoolID:        &school.ID,
		Status:          status,
		Source:          model.ClientSourceBulkImport,
		CreatedByUserID: &job.UploadedByUserID,
		InternalNotes:   "",
		// Окно отката сравнивает created_at с часами приложения, которыми
		// проставлен заголовок задания; дефолт БД здесь использовать нельзя.
		CreatedAt: time.Now().UTC(),
	}
	if prov != nil {
		client.ProviderID = &prov.ID
		client.Weekday = day
	}
	if row.ReferralDate != nil {
		d := toDate(*row.ReferralDate)
		client.ReferralDate = &d
	}
	if row.PaperworkReceived {
		now := time.Now().UTC()
		client.PaperworkReceivedAt = &now
		fx.paperworkReceived = true
	}

	// Занимаем слот до вставки: счётчик истины ещё не видит нового
	// клиента, и дрейф-коррекция не съест дельту.
	if client.ConsumesSlot() {
		warns, err := e.takeSlot(ctx, tx, *client.ProviderID, *client.SchoolID, *client.Weekday)
		if err != nil {
			return fx, err
		}
		fx.warnings = append(fx.warnings, warns...)
	}

	if err := e.clients.Create(ctx, tx, client); err != nil {
		return fx, err
	}
	fx.clientID = &client.ID
	fx.becameCurrent = status == model.ClientStatusCurrent
	return fx, nil
}

// updateClient обновляет существующего клиента, пересчитывая диф
// потребления так, чтобы no-op переназначение не считалось дважды.
// Пустая или несматченная колонка провайдера никогда не стирает уже
// существующее назначение.
func (e *Engine) updateClient(
	ctx context.Context,
	tx *gorm.DB,
	row *ParsedImportRow,
	fx rowEffects,
	existing *model.Client,
	school *model.School,
	prov *model.Provider,
	day *model.Weekday,
) (rowEffects, error) {
	next := *existing
	next.SchoolID = &school.ID
	if row.ProviderName != "" && prov != nil {
		next.ProviderID = &prov.ID
		if day != nil {
			next.Weekday = day
		}
	}
	if row.Status != "" {
		next.Status = model.ClientStatus(row.Status)
	}
	if row.ReferralDate != nil {
		d := toDate(*row.ReferralDate)
		next.ReferralDate = &d
	}
	if row.PaperworkReceived && existing.PaperworkReceivedAt == nil {
		now := time.Now().UTC()
		next.PaperworkReceivedAt = &now
		fx.paperworkReceived = true
	}

	oldConsumes := existing.ConsumesSlot()
	newConsumes := next.ConsumesSlot()
	changed := !sameTriple(existing, &next)

	if oldConsumes && (changed || !newConsumes) {
		if _, err := e.adjuster.AdjustSlot(ctx, tx, *existing.ProviderID, *existing.SchoolID, *existing.Weekday, +1, capacity.PolicyAllowOverbook); err != nil {
			return fx, err
		}
	}
	if newConsumes && (changed || !oldConsumes) {
		if _, err := e.provisioner.EnsureAssignment(ctx, tx, *next.ProviderID, *next.SchoolID, *next.Weekday); err != nil {
			return fx, err
		}
		warns, err := e.takeSlot(ctx, tx, *next.ProviderID, *next.SchoolID, *next.Weekday)
		if err != nil {
			return fx, err
		}
		fx.warnings = append(fx.warnings, warns...)
	}

	fields := map[string]any{
		"school_id":             next.SchoolID,
		"provider_id":           next.ProviderID,
		"weekday":               next.Weekday,
		"status":                next.Status,
		"referral_date":         next.ReferralDate,
		"paperwork_received_at": next.PaperworkReceivedAt,
	}
	if err := e.clients.UpdateFields(ctx, tx, existing.ID, fields); err != nil {
		return fx, err
	}
	fx.clientID = &existing.ID
	fx.becameCurrent = next.Status == model.ClientStatusCurrent && existing.Status != model.ClientStatusCurrent
	return fx, nil
}

// takeSlot занимает слот в мягкой политике: нехватка ёмкости для пакета
// не отказ, а предупреждение в исходе строки.
func (e *Engine) takeSlot(ctx context.Context, tx *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) ([]string, error) {
	res, err := e.adjuster.AdjustSlot(ctx, tx, providerID, schoolID, day, -1, capacity.PolicyAllowOverbook)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		return []string{fmt.Sprintf("slot not taken: %s", res.Reason)}, nil
	}
	if res.After < 0 {
		return []string{fmt.Sprintf("no slots available on %s; overbooked to %d", day, res.After)}, nil
	}
	return nil, nil
}

// fireSideEffects — пост-коммитные побочные эффекты строки. Их судьба
// не меняет уже записанный исход: ошибки логируются и глотаются.
func (e *Engine) fireSideEffects(ctx context.Context, job *model.ImportJob, row *ParsedImportRow, fx *rowEffects, rowLog *logrus.Entry) {
	if fx.clientID == nil {
		return
	}
	if row.Notes != "" {
		if err := e.notes.Add(ctx, *fx.clientID, &job.UploadedByUserID, row.Notes, model.ClientSourceBulkImport); err != nil {
			rowLog.WithError(err).Debug("client note dropped")
		}
	}
	if fx.becameCurrent {
		if err := e.notifier.ClientBecameCurrent(ctx, job.AgencyID, *fx.clientID, fx.code); err != nil {
			rowLog.WithError(err).Debug("became-current notification dropped")
		}
	}
	if fx.paperworkReceived {
		if err := e.notifier.PaperworkReceived(ctx, job.AgencyID, *fx.clientID, fx.code); err != nil {
			rowLog.WithError(err).Debug("paperwork notification dropped")
		}
	}
}

// resolveCode принимает предоставленный код, только если тот
// нормализуется ровно в шесть алфанумериков; иначе генерирует новый.
func (e *Engine) resolveCode(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, supplied string) (string, error) {
	if supplied != "" {
		if code, ok := NormalizeCode(supplied); ok {
			return code, nil
		}
	}
	return e.codes.Generate(ctx, tx, agencyID)
}

func sameTriple(a, b *model.Client) bool {
	if (a.ProviderID == nil) != (b.ProviderID == nil) ||
		(a.SchoolID == nil) != (b.SchoolID == nil) ||
		(a.Weekday == nil) != (b.Weekday == nil) {
		return false
	}
	if a.ProviderID != nil && *a.ProviderID != *b.ProviderID {
		return false
	}
	if a.SchoolID != nil && *a.SchoolID != *b.SchoolID {
		return false
	}
	if a.Weekday != nil && *a.Weekday != *b.Weekday {
		return false
	}
	return true
}

func toDate(t time.Time) datatypes.Date {
	return datatypes.Date(t)
}

// slugify приводит имя площадки к слагу для второй ветки точного поиска.
func slugify(s string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
