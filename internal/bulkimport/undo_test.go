package bulkimport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/agency-platform/internal/model"
)

func TestUndoImport_RejectsUnfinishedJob(t *testing.T) {
	f := newFixture(t)
	jobID := uuid.New()
	require.NoError(t, f.db.Exec(
		`INSERT INTO import_jobs (id, agency_id, uploaded_by_user_id, file_name, started_at, total_rows)
		 VALUES (?, ?, ?, 'roster.csv', ?, 1)`,
		jobID, f.agencyID, f.uploader, time.Now().UTC().Add(-time.Hour),
	).Error)

	_, err := f.engine.UndoImport(context.Background(), f.agencyID, jobID, false)
	assert.ErrorIs(t, err, ErrJobStillRunning)
}

func TestUndoImport_UnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.UndoImport(context.Background(), f.agencyID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUndoImport_DeletesOnlyCreatedClientsAndReleasesSlots(t *testing.T) {
	f := newFixture(t)
	lincoln := f.seedSchool(t, "Lincoln Elementary")
	jane := f.seedProvider(t, "Jane", "Doe", "jane@example.com")
	f.seedAssignment(t, jane, lincoln, model.WeekdayMonday, 7, 7)

	// A client that exists before the import; the job will update it.
	preexisting := model.Client{
		ID:             uuid.New(),
		AgencyID:       f.agencyID,
		IdentifierCode: "OLD111",
		SchoolID:       &lincoln,
		Status:         model.ClientStatusPending,
	}
	require.NoError(t, f.db.Create(&preexisting).Error)
	// Push its created_at well before the job window.
	require.NoError(t, f.db.Exec(
		`UPDATE clients SET created_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-24*time.Hour), preexisting.ID,
	).Error)

	rows := []ParsedImportRow{
		{RowNumber: 1, IdentifierCode: "NEW111", SiteName: "Lincoln Elementary", ProviderName: "Jane Doe", Weekday: "Monday", Status: "current"},
		{RowNumber: 2, IdentifierCode: "OLD111", SiteName: "Lincoln Elementary", Status: "waitlist"},
	}
	summary, err := f.engine.RunImport(context.Background(), f.agencyID, f.uploader, "roster.csv", rows)
	require.NoError(t, err)
	require.Equal(t, 2, summary.SuccessRows)
	require.Equal(t, 6, f.availability(t, jane, lincoln, model.WeekdayMonday))

	// Dry run computes without mutating and is repeatable.
	for i := 0; i < 2; i++ {
		dry, err := f.engine.UndoImport(context.Background(), f.agencyID, summary.JobID, true)
		require.NoError(t, err)
		assert.True(t, dry.DryRun)
		assert.Equal(t, 1, dry.EligibleClients)
		assert.Equal(t, 1, dry.SlotsReleased)
		assert.Equal(t, 0, dry.ClientsDeleted)
	}
	var countAfterDry int64
	require.NoError(t, f.db.Model(&model.Client{}).Count(&countAfterDry).Error)
	assert.EqualValues(t, 2, countAfterDry)
	assert.Equal(t, 6, f.availability(t, jane, lincoln, model.WeekdayMonday))

	undone, err := f.engine.UndoImport(context.Background(), f.agencyID, summary.JobID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, undone.EligibleClients)
	assert.Equal(t, 1, undone.SlotsReleased)
	assert.Equal(t, 1, undone.ClientsDeleted)

	// The created client is gone; the merely-updated one keeps its update.
	var created int64
	require.NoError(t, f.db.Model(&model.Client{}).Where("identifier_code = ?", "NEW111").Count(&created).Error)
	assert.EqualValues(t, 0, created)

	var kept model.Client
	require.NoError(t, f.db.First(&kept, "identifier_code = ?", "OLD111").Error)
	assert.Equal(t, model.ClientStatusWaitlist, kept.Status)

	assert.Equal(t, 7, f.availability(t, jane, lincoln, model.WeekdayMonday))
}

func TestUndoImport_ReleasesEverySlotOnSharedTuple(t *testing.T) {
	f := newFixture(t)
	lincoln := f.seedSchool(t, "Lincoln Elementary")
	jane := f.seedProvider(t, "Jane", "Doe", "jane@example.com")
	f.seedAssignment(t, jane, lincoln, model.WeekdayMonday, 7, 7)

	// Two created clients consuming the same (provider, school, weekday).
	rows := []ParsedImportRow{
		{RowNumber: 1, IdentifierCode: "AAA111", SiteName: "Lincoln Elementary", ProviderName: "Jane Doe", Weekday: "Monday", Status: "current"},
		{RowNumber: 2, IdentifierCode: "BBB333", SiteName: "Lincoln Elementary", ProviderName: "Jane Doe", Weekday: "Monday", Status: "current"},
	}
	summary, err := f.engine.RunImport(context.Background(), f.agencyID, f.uploader, "roster.csv", rows)
	require.NoError(t, err)
	require.Equal(t, 2, summary.SuccessRows)
	require.Equal(t, 5, f.availability(t, jane, lincoln, model.WeekdayMonday))

	undone, err := f.engine.UndoImport(context.Background(), f.agencyID, summary.JobID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, undone.EligibleClients)
	assert.Equal(t, 2, undone.SlotsReleased)
	assert.Equal(t, 2, undone.ClientsDeleted)

	// Both releases land: availability is back at its pre-import value.
	assert.Equal(t, 7, f.availability(t, jane, lincoln, model.WeekdayMonday))
}

func TestUndoImport_CleansPlaceholderProvidersConservatively(t *testing.T) {
	f := newFixture(t)
	lincoln := f.seedSchool(t, "Lincoln Elementary")
	placeholder := f.seedProvider(t, "Ghost", "Import", "provider+a1b2@import.invalid")
	real := f.seedProvider(t, "Jane", "Doe", "jane@example.com")
	f.seedAssignment(t, placeholder, lincoln, model.WeekdayMonday, 7, 7)
	f.seedAssignment(t, real, lincoln, model.WeekdayTuesday, 7, 7)

	rows := []ParsedImportRow{
		{RowNumber: 1, IdentifierCode: "NEW111", SiteName: "Lincoln Elementary", ProviderName: "Ghost Import", Weekday: "Monday", Status: "current"},
		{RowNumber: 2, IdentifierCode: "NEW222", SiteName: "Lincoln Elementary", ProviderName: "Jane Doe", Weekday: "Tuesday", Status: "current"},
	}
	summary, err := f.engine.RunImport(context.Background(), f.agencyID, f.uploader, "roster.csv", rows)
	require.NoError(t, err)
	require.Equal(t, 2, summary.SuccessRows)

	undone, err := f.engine.UndoImport(context.Background(), f.agencyID, summary.JobID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, undone.ClientsDeleted)
	assert.Equal(t, 1, undone.ProvidersCleaned)

	var placeholderCount int64
	require.NoError(t, f.db.Model(&model.Provider{}).Where("id = ?", placeholder).Count(&placeholderCount).Error)
	assert.EqualValues(t, 0, placeholderCount)

	// Real providers are never touched, placeholder or not referenced.
	var realCount int64
	require.NoError(t, f.db.Model(&model.Provider{}).Where("id = ?", real).Count(&realCount).Error)
	assert.EqualValues(t, 1, realCount)
}

func TestUndoImport_CleansWindowCreatedOrphanSchools(t *testing.T) {
	f := newFixture(t)
	// Created long before any job: must survive even when orphaned.
	oldSchool := f.seedSchool(t, "Lincoln Elementary")
	require.NoError(t, f.db.Exec(
		`UPDATE schools SET created_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-24*time.Hour), oldSchool,
	).Error)

	rows := []ParsedImportRow{
		{RowNumber: 1, IdentifierCode: "NEW111", SiteName: "Lincoln Elementary", Status: "pending"},
	}
	summary, err := f.engine.RunImport(context.Background(), f.agencyID, f.uploader, "roster.csv", rows)
	require.NoError(t, err)

	undone, err := f.engine.UndoImport(context.Background(), f.agencyID, summary.JobID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, undone.SchoolsCleaned)

	var count int64
	require.NoError(t, f.db.Model(&model.School{}).Where("id = ?", oldSchool).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
