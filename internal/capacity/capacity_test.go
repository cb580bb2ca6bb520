package capacity

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
	"github.com/Leganyst/agency-platform/internal/repository"
)

// Minimal sqlite-friendly schema for the ledger logic.
var capacitySchema = []string{
	`CREATE TABLE school_assignments (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		school_id TEXT NOT NULL,
		weekday TEXT NOT NULL,
		slots_total INTEGER NOT NULL DEFAULT 0,
		slots_available INTEGER NOT NULL DEFAULT 0,
		start_time TEXT,
		end_time TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE(provider_id, school_id, weekday)
	);`,
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		agency_id TEXT NOT NULL,
		identifier_code TEXT NOT NULL,
		school_id TEXT,
		provider_id TEXT,
		weekday TEXT,
		status TEXT NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT 0,
		source TEXT,
		created_by_user_id TEXT,
		referral_date DATE,
		paperwork_received_at DATETIME,
		internal_notes TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
}

const legacyPlacementsSchema = `CREATE TABLE schedule_placements (
	id TEXT PRIMARY KEY,
	client_id TEXT,
	provider_id TEXT NOT NULL,
	school_id TEXT NOT NULL,
	weekday TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME
);`

func newTestDB(t *testing.T, extra ...string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range append(append([]string{}, capacitySchema...), extra...) {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedAssignment(t *testing.T, db *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday, total, available int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(
		`INSERT INTO school_assignments (id, provider_id, school_id, weekday, slots_total, slots_available, start_time, end_time, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, '08:00', '15:00', 1)`,
		id, providerID, schoolID, day, total, available,
	).Error
	require.NoError(t, err)
	return id
}

func seedConsumingClient(t *testing.T, db *gorm.DB, providerID, schoolID uuid.UUID, day model.Weekday) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(
		`INSERT INTO clients (id, agency_id, identifier_code, school_id, provider_id, weekday, status, archived)
		 VALUES (?, ?, ?, ?, ?, ?, 'current', 0)`,
		id, uuid.New(), id.String()[:6], schoolID, providerID, day,
	).Error
	require.NoError(t, err)
	return id
}

func assignmentAvailability(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var available int
	require.NoError(t, db.Raw(`SELECT slots_available FROM school_assignments WHERE id = ?`, id).Scan(&available).Error)
	return available
}

func newAdjuster(db *gorm.DB) *Adjuster {
	repo := repository.NewGormAssignmentRepository()
	clients := repository.NewGormClientRepository()
	used := NewUsedCounter(Capabilities{}, clients)
	return NewAdjuster(repo, used, silentLogger())
}

func TestAdjustSlot_TakeAndRelease(t *testing.T) {
	db := newTestDB(t)
	adj := newAdjuster(db)
	providerID, schoolID := uuid.New(), uuid.New()
	rowID := seedAssignment(t, db, providerID, schoolID, model.WeekdayMonday, 7, 7)

	res, err := adj.AdjustSlot(context.Background(), db, providerID, schoolID, model.WeekdayMonday, -1, PolicyStrict)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 6, res.After)

	// Ground truth caught up: one consuming client now exists.
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayMonday)

	res, err = adj.AdjustSlot(context.Background(), db, providerID, schoolID, model.WeekdayMonday, +1, PolicyStrict)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 7, res.After)
	assert.Equal(t, 7, assignmentAvailability(t, db, rowID))
}

func TestAdjustSlot_MissingRowIsNotScheduled(t *testing.T) {
	db := newTestDB(t)
	adj := newAdjuster(db)

	res, err := adj.AdjustSlot(context.Background(), db, uuid.New(), uuid.New(), model.WeekdayTuesday, -1, PolicyStrict)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonNotScheduled, res.Reason)
}

func TestAdjustSlot_DriftCorrectionPersistsBeforeDelta(t *testing.T) {
	db := newTestDB(t)
	adj := newAdjuster(db)
	providerID, schoolID := uuid.New(), uuid.New()
	// Stored availability says 7, but two clients already consume.
	rowID := seedAssignment(t, db, providerID, schoolID, model.WeekdayWednesday, 7, 7)
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayWednesday)
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayWednesday)

	res, err := adj.AdjustSlot(context.Background(), db, providerID, schoolID, model.WeekdayWednesday, -1, PolicyStrict)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.Corrected)
	assert.Equal(t, 5, res.Before)
	assert.Equal(t, 4, res.After)
	assert.Equal(t, 4, assignmentAvailability(t, db, rowID))
}

func TestAdjustSlot_StrictRefusesBelowZero(t *testing.T) {
	db := newTestDB(t)
	adj := newAdjuster(db)
	providerID, schoolID := uuid.New(), uuid.New()
	rowID := seedAssignment(t, db, providerID, schoolID, model.WeekdayThursday, 0, 0)

	res, err := adj.AdjustSlot(context.Background(), db, providerID, schoolID, model.WeekdayThursday, -1, PolicyStrict)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ReasonNoSlots, res.Reason)
	assert.Equal(t, 0, assignmentAvailability(t, db, rowID))
}

func TestAdjustSlot_OverbookPolicyGoesNegativeWithoutClamp(t *testing.T) {
	db := newTestDB(t)
	adj := newAdjuster(db)
	providerID, schoolID := uuid.New(), uuid.New()
	rowID := seedAssignment(t, db, providerID, schoolID, model.WeekdayFriday, 0, 0)

	res, err := adj.AdjustSlot(context.Background(), db, providerID, schoolID, model.WeekdayFriday, -1, PolicyAllowOverbook)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, -1, res.After)
	assert.Equal(t, -1, assignmentAvailability(t, db, rowID))
}

func TestProvisioner_CreatesWithBaseline(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormAssignmentRepository()
	used := NewUsedCounter(Capabilities{}, repository.NewGormClientRepository())
	prov := NewProvisioner(repo, used, 7, silentLogger())
	providerID, schoolID := uuid.New(), uuid.New()

	// Two clients consume before the ledger row exists: the new row must
	// start with the baseline already subtracted.
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayMonday)
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayMonday)

	row, err := prov.EnsureAssignment(context.Background(), db, providerID, schoolID, model.WeekdayMonday)
	require.NoError(t, err)
	assert.Equal(t, 7, row.SlotsTotal)
	assert.Equal(t, 5, row.SlotsAvailable)
	assert.Equal(t, "08:00", row.StartTime)
	assert.True(t, row.IsActive)
}

func TestProvisioner_MayStartOverbooked(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormAssignmentRepository()
	used := NewUsedCounter(Capabilities{}, repository.NewGormClientRepository())
	prov := NewProvisioner(repo, used, 1, silentLogger())
	providerID, schoolID := uuid.New(), uuid.New()

	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayTuesday)
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayTuesday)

	row, err := prov.EnsureAssignment(context.Background(), db, providerID, schoolID, model.WeekdayTuesday)
	require.NoError(t, err)
	assert.Equal(t, -1, row.SlotsAvailable)
}

func TestProvisioner_ExistingRowOnlyBackfilled(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormAssignmentRepository()
	used := NewUsedCounter(Capabilities{}, repository.NewGormClientRepository())
	prov := NewProvisioner(repo, used, 7, silentLogger())
	providerID, schoolID := uuid.New(), uuid.New()

	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO school_assignments (id, provider_id, school_id, weekday, slots_total, slots_available, start_time, end_time, is_active)
		 VALUES (?, ?, ?, ?, 3, -2, '', '', 0)`,
		id, providerID, schoolID, model.WeekdayMonday,
	).Error)

	row, err := prov.EnsureAssignment(context.Background(), db, providerID, schoolID, model.WeekdayMonday)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, "08:00", row.StartTime)
	assert.True(t, row.IsActive)
	// Live capacity state survives provisioning untouched.
	assert.Equal(t, -2, assignmentAvailability(t, db, id))
}

func TestLeaveReconciler_ZeroOut(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormAssignmentRepository()
	used := NewUsedCounter(Capabilities{}, repository.NewGormClientRepository())
	leave := NewLeaveReconciler(db, repo, used, silentLogger())
	providerID := uuid.New()

	a := seedAssignment(t, db, providerID, uuid.New(), model.WeekdayMonday, 7, 4)
	b := seedAssignment(t, db, providerID, uuid.New(), model.WeekdayFriday, 5, -1)

	require.NoError(t, leave.ZeroOut(context.Background(), providerID))
	assert.Equal(t, 0, assignmentAvailability(t, db, a))
	assert.Equal(t, 0, assignmentAvailability(t, db, b))
}

func TestLeaveReconciler_ReturnClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormAssignmentRepository()
	used := NewUsedCounter(Capabilities{}, repository.NewGormClientRepository())
	leave := NewLeaveReconciler(db, repo, used, silentLogger())
	providerID := uuid.New()
	schoolA, schoolB := uuid.New(), uuid.New()

	free := seedAssignment(t, db, providerID, schoolA, model.WeekdayMonday, 7, 0)
	overbooked := seedAssignment(t, db, providerID, schoolB, model.WeekdayMonday, 1, 0)
	seedConsumingClient(t, db, providerID, schoolA, model.WeekdayMonday)
	seedConsumingClient(t, db, providerID, schoolB, model.WeekdayMonday)
	seedConsumingClient(t, db, providerID, schoolB, model.WeekdayMonday)

	require.NoError(t, leave.ReconcileOnReturn(context.Background(), providerID))
	assert.Equal(t, 6, assignmentAvailability(t, db, free))
	// Ground truth implies -1 here, but the return path never advertises
	// further overbooking.
	assert.Equal(t, 0, assignmentAvailability(t, db, overbooked))
}

func TestDetectCapabilities_TablePresence(t *testing.T) {
	withLegacy := newTestDB(t, legacyPlacementsSchema)
	caps := DetectCapabilities(withLegacy)
	assert.True(t, caps.HasClients)
	assert.True(t, caps.HasLegacyPlacements)

	withoutLegacy := newTestDB(t)
	caps = DetectCapabilities(withoutLegacy)
	assert.True(t, caps.HasClients)
	assert.False(t, caps.HasLegacyPlacements)
}

// legacyOnlyDB mimics an old deployment where only schedule_placements
// exists.
func legacyOnlyDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(legacyPlacementsSchema).Error)
	return db
}

func TestLegacyCounter_CountsNonCancelledPlacements(t *testing.T) {
	db := legacyOnlyDB(t)
	caps := DetectCapabilities(db)
	require.False(t, caps.HasClients)
	require.True(t, caps.HasLegacyPlacements)
	used := NewUsedCounter(caps, repository.NewGormClientRepository())
	providerID, schoolID := uuid.New(), uuid.New()

	insert := func(status string) {
		require.NoError(t, db.Exec(
			`INSERT INTO schedule_placements (id, provider_id, school_id, weekday, status) VALUES (?, ?, ?, ?, ?)`,
			uuid.New(), providerID, schoolID, model.WeekdayMonday, status,
		).Error)
	}
	insert("active")
	insert("active")
	insert("cancelled")

	n, err := used.CountUsed(context.Background(), db, providerID, schoolID, model.WeekdayMonday)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUsedCounter_ClientsPreferredOverLingeringLegacyTable(t *testing.T) {
	db := newTestDB(t, legacyPlacementsSchema)
	used := NewUsedCounter(DetectCapabilities(db), repository.NewGormClientRepository())
	providerID, schoolID := uuid.New(), uuid.New()

	// Stale placement rows must not drive the count while the
	// authoritative clients table is present.
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Exec(
			`INSERT INTO schedule_placements (id, provider_id, school_id, weekday, status) VALUES (?, ?, ?, ?, 'active')`,
			uuid.New(), providerID, schoolID, model.WeekdayMonday,
		).Error)
	}
	seedConsumingClient(t, db, providerID, schoolID, model.WeekdayMonday)

	n, err := used.CountUsed(context.Background(), db, providerID, schoolID, model.WeekdayMonday)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
