package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"crewsync-service/internal/domain/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        filepath.Join(t.TempDir(), "crewsync.db"),
	}, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

var (
	liveAt = time.Date(2026, 1, 30, 8, 0, 0, 0, time.UTC)
	csvAt  = liveAt.Add(-time.Hour)
)

func ptr(t time.Time) *time.Time { return &t }

func TestCrewRepository_UpsertIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormCrewRepository(newTestDB(t))

	crew := []entity.CrewMember{
		{CrewID: "C-1001", Name: "Nguyen Van A", Base: "SGN", Qualifications: []string{"A321", "B787"}, Source: entity.SourceAIMS, UpdatedAt: liveAt},
		{CrewID: "C-1002", Name: "Tran Thi B", Base: "HAN", Source: entity.SourceAIMS, UpdatedAt: liveAt},
	}

	counts, err := repo.UpsertCrew(ctx, crew)
	require.NoError(t, err)
	require.Equal(t, entity.UpsertCounts{Inserted: 2}, counts)

	counts, err = repo.UpsertCrew(ctx, crew)
	require.NoError(t, err)
	require.Equal(t, entity.UpsertCounts{Unchanged: 2}, counts)

	n, err := repo.CountCrew(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	got, err := repo.GetCrew(ctx, "C-1001")
	require.NoError(t, err)
	require.Equal(t, []string{"A321", "B787"}, got.Qualifications)
	require.True(t, got.UpdatedAt.Equal(liveAt))

	_, err = repo.GetCrew(ctx, "C-9999")
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCrewRepository_OlderCSVDoesNotClobberLive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormCrewRepository(newTestDB(t))

	_, err := repo.UpsertCrew(ctx, []entity.CrewMember{
		{CrewID: "C-1001", Name: "Nguyen Van A", Base: "SGN", Source: entity.SourceAIMS, UpdatedAt: liveAt},
	})
	require.NoError(t, err)

	counts, err := repo.UpsertCrew(ctx, []entity.CrewMember{
		{CrewID: "C-1001", Name: "NGUYEN A", Base: "DAD", Source: entity.SourceCSV, UpdatedAt: csvAt},
	})
	require.NoError(t, err)
	require.Equal(t, 1, counts.Skipped)

	got, err := repo.GetCrew(ctx, "C-1001")
	require.NoError(t, err)
	require.Equal(t, "SGN", got.Base)
	require.Equal(t, entity.SourceAIMS, got.Source)

	counts, err = repo.UpsertCrew(ctx, []entity.CrewMember{
		{CrewID: "C-1001", Name: "NGUYEN A", Base: "DAD", Source: entity.SourceCSV, UpdatedAt: liveAt.Add(time.Minute)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, counts.Updated)

	got, err = repo.GetCrew(ctx, "C-1001")
	require.NoError(t, err)
	require.Equal(t, "DAD", got.Base)
	require.Equal(t, entity.SourceCSV, got.Source)
}

func TestFlightRepository_WholeRowReplacement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormFlightRepository(newTestDB(t))

	key := entity.FlightKey{FlightDate: "2026-01-30", FlightNumber: "VN123", Departure: "SGN"}
	first := entity.FlightRecord{
		FlightKey: key, Arrival: "HAN", AircraftReg: "VN-A888", AircraftType: "A321",
		STD: ptr(time.Date(2026, 1, 30, 1, 0, 0, 0, time.UTC)),
		STA: ptr(time.Date(2026, 1, 30, 3, 10, 0, 0, time.UTC)),
		Source: entity.SourceAIMS, UpdatedAt: liveAt,
	}
	_, err := repo.UpsertFlights(ctx, []entity.FlightRecord{first})
	require.NoError(t, err)

	second := first
	second.STA = nil
	second.AircraftReg = "VN-A899"
	second.UpdatedAt = liveAt.Add(5 * time.Minute)
	counts, err := repo.UpsertFlights(ctx, []entity.FlightRecord{second})
	require.NoError(t, err)
	require.Equal(t, 1, counts.Updated)

	got, err := repo.GetFlight(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "VN-A899", got.AircraftReg)
	require.Nil(t, got.STA)

	n, err := repo.CountFlights(ctx, entity.NewTimeWindow(liveAt, liveAt))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRosterRepository_OrphansAreFlaggedAndRelinked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	crewRepo := NewGormCrewRepository(db)
	rosterRepo := NewGormRosterRepository(db)

	acts := []entity.RosterActivity{
		{CrewID: "C-1001", ActivityDate: "2026-01-30", DutyCode: "VN123", ActivityType: entity.ActivityFly, FlightNumber: "VN123", Departure: "SGN", BlockMinutes: 130, Source: entity.SourceAIMS, UpdatedAt: liveAt},
		{CrewID: "C-1002", ActivityDate: "2026-01-30", DutyCode: "SBY", ActivityType: entity.ActivityStandby, Source: entity.SourceAIMS, UpdatedAt: liveAt},
	}
	counts, err := rosterRepo.UpsertRoster(ctx, acts)
	require.NoError(t, err)
	require.Equal(t, 2, counts.Inserted)

	orphans, err := rosterRepo.CountOrphans(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, orphans)

	_, err = crewRepo.UpsertCrew(ctx, []entity.CrewMember{
		{CrewID: "C-1001", Name: "A", Source: entity.SourceAIMS, UpdatedAt: liveAt},
		{CrewID: "C-2000", Name: "Idle", Source: entity.SourceAIMS, UpdatedAt: liveAt},
	})
	require.NoError(t, err)

	relinked, err := rosterRepo.RelinkOrphans(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, relinked)

	orphans, err = rosterRepo.CountOrphans(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, orphans)

	idle, err := rosterRepo.CountCrewWithoutActivity(ctx, entity.NewTimeWindow(liveAt, liveAt))
	require.NoError(t, err)
	require.EqualValues(t, 1, idle)

	fly, err := rosterRepo.ListFlyActivities(ctx, entity.NewTimeWindow(liveAt.AddDate(0, 0, -27), liveAt))
	require.NoError(t, err)
	require.Len(t, fly, 1)
	require.True(t, fly[0].CrewKnown)

	counts, err = rosterRepo.UpsertRoster(ctx, acts)
	require.NoError(t, err)
	require.Equal(t, entity.UpsertCounts{Unchanged: 2}, counts)
	total, err := rosterRepo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestUpsert_ChunksLargeBatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormCrewRepository(newTestDB(t))

	crew := make([]entity.CrewMember, 0, 450)
	for i := 0; i < 450; i++ {
		crew = append(crew, entity.CrewMember{CrewID: fmt.Sprintf("C-%04d", i), Name: "Crew", Source: entity.SourceAIMS, UpdatedAt: liveAt})
	}
	counts, err := repo.UpsertCrew(ctx, crew)
	require.NoError(t, err)
	require.Equal(t, 450, counts.Inserted)
	require.Len(t, chunks(crew, upsertChunkSize), 3)
}

func TestSwapRepository_EventIDsAreUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSwapRepository(db)

	for i, reg := range []string{"VN-A899", "VN-A321"} {
		ev := &entity.SwapEvent{
			FlightKey:   entity.FlightKey{FlightDate: "2026-01-30", FlightNumber: "VN123", Departure: "SGN"},
			OriginalReg: "VN-A888", SwappedReg: reg,
			Category: entity.CategoryUnknown, RecoveryStatus: entity.RecoveryPending, DetectedAt: liveAt,
		}
		created, err := repo.CreateIfAbsent(ctx, ev)
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, entity.FormatSwapEventID(i+1), ev.EventID)
	}

	dup := "SW-0001"
	err := db.Create(&SwapEvents{
		EventID: &dup, FlightDate: "2026-01-31", FlightNumber: "VN456", Departure: "HAN",
		OriginalReg: "VN-A888", SwappedReg: "VN-A899",
	}).Error
	require.Error(t, err)
}

func TestSwapRepository_PairUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormSwapRepository(newTestDB(t))

	key := entity.FlightKey{FlightDate: "2026-01-30", FlightNumber: "VN123", Departure: "SGN"}
	newEvent := func() *entity.SwapEvent {
		return &entity.SwapEvent{
			FlightKey: key, OriginalReg: "VN-A888", SwappedReg: "VN-A899",
			Category: entity.CategoryMaintenance, RecoveryStatus: entity.RecoveryPending, DetectedAt: liveAt,
		}
	}

	ev := newEvent()
	created, err := repo.CreateIfAbsent(ctx, ev)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "SW-0001", ev.EventID)

	for i := 0; i < 3; i++ {
		created, err = repo.CreateIfAbsent(ctx, newEvent())
		require.NoError(t, err)
		require.False(t, created)
	}

	events, err := repo.ListByFlight(ctx, key)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.UpdateRecovery(ctx, "SW-0001", entity.RecoveryRecovered, 5))
	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
	require.ErrorIs(t, repo.UpdateRecovery(ctx, "SW-9999", entity.RecoveryDelayed, 0), entity.ErrNotFound)

	page, total, err := repo.Query(ctx, entity.SwapFilter{Period: entity.NewTimeWindow(liveAt, liveAt), Category: entity.CategoryMaintenance, Page: 1})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, entity.RecoveryRecovered, page[0].RecoveryStatus)
}

func TestAssignmentSnapshot_BaselineNeverOverwritten(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormAssignmentSnapshotRepository(newTestDB(t))

	key := entity.FlightKey{FlightDate: "2026-01-30", FlightNumber: "VN123", Departure: "SGN"}
	stored, created, err := repo.Baseline(ctx, entity.AircraftAssignmentSnapshot{FlightKey: key, AircraftReg: "VN-A888", AircraftType: "A321", FirstSeenAt: liveAt})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "VN-A888", stored.AircraftReg)

	stored, created, err = repo.Baseline(ctx, entity.AircraftAssignmentSnapshot{FlightKey: key, AircraftReg: "VN-A899", AircraftType: "A321", FirstSeenAt: liveAt.Add(time.Hour)})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "VN-A888", stored.AircraftReg)
}

func TestComplianceRepository_ReplaceAndDensity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormComplianceRepository(newTestDB(t))

	snaps := func(date string, n int, hours float64) []entity.ComplianceSnapshot {
		out := make([]entity.ComplianceSnapshot, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, entity.ComplianceSnapshot{
				CrewID: fmt.Sprintf("C-%d", i), CalculationDate: date, Hours28Day: hours,
				WarningLevel: entity.LevelNormal, Source: entity.SourceEngine, ComputedAt: liveAt,
			})
		}
		return out
	}

	require.NoError(t, repo.ReplaceSnapshots(ctx, "2026-01-29", snaps("2026-01-29", 6, 40)))
	require.NoError(t, repo.ReplaceSnapshots(ctx, "2026-01-30", snaps("2026-01-30", 2, 40)))
	require.NoError(t, repo.ReplaceSnapshots(ctx, "2026-01-30", snaps("2026-01-30", 3, 41)))

	got, err := repo.ListSnapshots(ctx, "2026-01-30", "")
	require.NoError(t, err)
	require.Len(t, got, 3)

	dates, err := repo.DenseDates(ctx, "2026-01-23", "2026-01-30", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-01-29"}, dates)

	counts, err := repo.SaveReported(ctx, []entity.ComplianceSnapshot{
		{CrewID: "C-0", CalculationDate: "2026-01-30", Hours28Day: 99, Source: entity.SourceCSV, ComputedAt: liveAt},
		{CrewID: "C-77", CalculationDate: "2026-01-30", Hours28Day: 12, Source: entity.SourceCSV, ComputedAt: liveAt},
	})
	require.NoError(t, err)
	require.Equal(t, 1, counts.Skipped)
	require.Equal(t, 1, counts.Inserted)

	c0, err := repo.ListSnapshots(ctx, "2026-01-30", "C-0")
	require.NoError(t, err)
	require.Equal(t, 41.0, c0[0].Hours28Day)

	nonZero, err := repo.CountNonZero(ctx, "2026-01-30")
	require.NoError(t, err)
	require.EqualValues(t, 4, nonZero)
}

func TestReferenceRepository_Upserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewGormReferenceRepository(newTestDB(t))

	airports := []entity.Airport{{Code: "SGN", Name: "Tan Son Nhat", TzName: "Asia/Ho_Chi_Minh", UTCOffsetMinutes: 420}}
	counts, err := repo.UpsertAirports(ctx, airports)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Inserted)
	counts, err = repo.UpsertAirports(ctx, airports)
	require.NoError(t, err)
	require.Equal(t, 1, counts.Unchanged)

	ap, err := repo.GetAirport(ctx, "SGN")
	require.NoError(t, err)
	require.Equal(t, 420, ap.UTCOffsetMinutes)

	_, err = repo.UpsertAircraft(ctx, []entity.Aircraft{{Registration: "VN-A888", Type: "A321"}})
	require.NoError(t, err)
	ac, err := repo.GetAircraft(ctx, "VN-A888")
	require.NoError(t, err)
	require.Equal(t, "A321", ac.Type)
}
