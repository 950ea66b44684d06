package usecase

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	gormrepo "crewsync-service/internal/interface/repository"
	"crewsync-service/pkg/logger"
)

var asOf = time.Date(2026, 1, 30, 17, 0, 0, 0, time.UTC)

type testEnv struct {
	stores    Stores
	snapshots repository.AssignmentSnapshotRepository
	swaps     repository.SwapRepository
	modLog    *fakeModLog
	jobs      *fakeJobs
	notifier  *fakeNotifier
	gate      *StoreGate
	clock     *clockwork.FakeClock
	log       logger.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        filepath.Join(t.TempDir(), "crewsync.db"),
	}, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gormrepo.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	modLog := &fakeModLog{}
	return &testEnv{
		stores: Stores{
			Crew:       gormrepo.NewGormCrewRepository(db),
			Roster:     gormrepo.NewGormRosterRepository(db),
			Flights:    gormrepo.NewGormFlightRepository(db),
			ModLog:     modLog,
			Reference:  gormrepo.NewGormReferenceRepository(db),
			Compliance: gormrepo.NewGormComplianceRepository(db),
		},
		snapshots: gormrepo.NewGormAssignmentSnapshotRepository(db),
		swaps:     gormrepo.NewGormSwapRepository(db),
		modLog:    modLog,
		jobs:      &fakeJobs{},
		notifier:  &fakeNotifier{},
		gate:      NewStoreGate(),
		clock:     clockwork.NewFakeClockAt(asOf),
		log:       logger.NewNop(),
	}
}

func (e *testEnv) reconciler() *Reconciler {
	return NewReconciler(e.stores, e.gate, nil, e.log)
}

func (e *testEnv) engine() *ComplianceEngine {
	return NewComplianceEngine(e.stores, e.gate, e.notifier, ComplianceConfig{
		Thresholds:           entity.DefaultThresholds(),
		MinCrewDensity:       5,
		BestDateLookbackDays: 7,
	}, nil, e.clock, e.log)
}

func (e *testEnv) detector() *SwapDetector {
	return NewSwapDetector(e.stores.Flights, e.modLog, e.snapshots, e.swaps,
		NewSwapClassifier(DefaultSwapKeywords()), e.gate,
		SwapDetectorConfig{DelayThresholdMinutes: 15}, nil, e.clock, e.log)
}

func crewMember(id string, at time.Time) entity.CrewMember {
	return entity.CrewMember{CrewID: id, Name: "Crew " + id, Base: "SGN", Source: entity.SourceAIMS, UpdatedAt: at}
}

func fly(crewID string, day time.Time, flightNo string, minutes int) entity.RosterActivity {
	start := day.Add(6 * time.Hour)
	return entity.RosterActivity{
		CrewID:       crewID,
		ActivityDate: entity.FormatDate(day),
		DutyCode:     flightNo,
		ActivityType: entity.ActivityFly,
		FlightNumber: flightNo,
		Departure:    "SGN",
		StartAt:      start,
		EndAt:        start.Add(time.Duration(minutes) * time.Minute),
		BlockMinutes: minutes,
		Source:       entity.SourceAIMS,
		UpdatedAt:    asOf,
	}
}

type fakeModLog struct {
	mu      sync.Mutex
	entries []entity.ModificationLogEntry
}

func (f *fakeModLog) Append(_ context.Context, entries []entity.ModificationLogEntry) (entity.UpsertCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return entity.UpsertCounts{Inserted: len(entries)}, nil
}

func (f *fakeModLog) FindByFlight(_ context.Context, key entity.FlightKey) ([]entity.ModificationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ModificationLogEntry
	for _, e := range f.entries {
		if e.FlightKey == key {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return out, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []entity.SyncJob
}

func (f *fakeJobs) Start(_ context.Context, job entity.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobs) Finish(_ context.Context, job entity.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobs {
		if f.jobs[i].RunID == job.RunID {
			f.jobs[i] = job
			return nil
		}
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobs) LastSuccessful(_ context.Context, kind entity.EntityKind, mode entity.SyncMode) (*entity.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *entity.SyncJob
	for i := range f.jobs {
		j := f.jobs[i]
		if j.Status != entity.SyncCompleted || (kind != "" && j.Kind != kind) || (mode != "" && j.Mode != mode) {
			continue
		}
		if last == nil || !j.FinishedAt.Before(last.FinishedAt) {
			last = &j
		}
	}
	return last, nil
}

func (f *fakeJobs) Recent(_ context.Context, limit int) ([]entity.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]entity.SyncJob(nil), f.jobs...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []entity.Alert
}

func (f *fakeNotifier) Notify(_ context.Context, alert entity.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.alerts))
	for _, a := range f.alerts {
		out = append(out, a.Kind)
	}
	return out
}

type fakeQualityReports struct {
	reports []entity.DataQualityReport
}

func (f *fakeQualityReports) Save(_ context.Context, report entity.DataQualityReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeQualityReports) Latest(context.Context) (*entity.DataQualityReport, error) {
	if len(f.reports) == 0 {
		return nil, nil
	}
	r := f.reports[len(f.reports)-1]
	return &r, nil
}

// fakeSource answers fetches through fn and counts calls per kind
type fakeSource struct {
	mu    sync.Mutex
	calls map[entity.EntityKind]int
	fn    func(kind entity.EntityKind, call int) (*entity.Batch, error)
}

func (f *fakeSource) Source() entity.Source { return entity.SourceAIMS }

func (f *fakeSource) Fetch(_ context.Context, kind entity.EntityKind, _ entity.TimeWindow) (*entity.Batch, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[entity.EntityKind]int)
	}
	f.calls[kind]++
	call := f.calls[kind]
	fn := f.fn
	f.mu.Unlock()
	return fn(kind, call)
}

func (f *fakeSource) count(kind entity.EntityKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}
