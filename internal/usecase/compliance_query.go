package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

// ModeReader exposes the current data mode without allowing transitions
type ModeReader interface {
	Mode() entity.SyncMode
}

// ComplianceQueryConfig tunes the compliance read model
type ComplianceQueryConfig struct {
	MinCrewDensity       int
	BestDateLookbackDays int
	// StaleAfter marks live data stale when the last successful live sync is older
	StaleAfter time.Duration
	CacheTTL   time.Duration
}

// ComplianceQuery serves FTL snapshots to report collaborators
type ComplianceQuery struct {
	compliance repository.ComplianceRepository
	jobs       repository.SyncJobRepository
	mode       ModeReader
	cfg        ComplianceQueryConfig
	cache      *queryCache
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewComplianceQuery creates the read model. mode may be nil.
func NewComplianceQuery(compliance repository.ComplianceRepository, jobs repository.SyncJobRepository, mode ModeReader, cfg ComplianceQueryConfig, clock clockwork.Clock, logger logger.Logger) *ComplianceQuery {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.BestDateLookbackDays <= 0 {
		cfg.BestDateLookbackDays = 7
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &ComplianceQuery{
		compliance: compliance,
		jobs:       jobs,
		mode:       mode,
		cfg:        cfg,
		cache:      newQueryCache(cfg.CacheTTL, clock),
		clock:      clock,
		logger:     logger,
	}
}

// BestDate returns the most recent date, at most the lookback before today, whose
// snapshots pass the density check. Today is returned when none does.
func (q *ComplianceQuery) BestDate(ctx context.Context) (string, error) {
	today := entity.TruncateDay(q.clock.Now())
	from := entity.FormatDate(today.AddDate(0, 0, -q.cfg.BestDateLookbackDays))
	dates, err := q.compliance.DenseDates(ctx, from, entity.FormatDate(today), q.cfg.MinCrewDensity)
	if err != nil {
		return "", fmt.Errorf("find best date: %w", err)
	}
	if len(dates) == 0 {
		return entity.FormatDate(today), nil
	}
	return dates[0], nil
}

// Query returns snapshots of the date, optionally for one crew member, with the
// reliability and freshness metadata of the data behind them
func (q *ComplianceQuery) Query(ctx context.Context, crewID, date string) (*entity.ComplianceReport, error) {
	if date == "" {
		best, err := q.BestDate(ctx)
		if err != nil {
			return nil, err
		}
		date = best
	} else if _, err := entity.ParseDate(date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	data, err := q.snapshots(ctx, crewID, date)
	if err != nil {
		return nil, err
	}

	report := &entity.ComplianceReport{
		Date:      date,
		Snapshots: data.snaps,
	}
	if q.mode != nil {
		report.Mode = q.mode.Mode()
	}
	// hours derive from the roster, so its live pass decides freshness
	last, err := q.jobs.LastSuccessful(ctx, entity.KindRoster, entity.ModeLive)
	if err != nil {
		return nil, fmt.Errorf("last successful sync: %w", err)
	}
	if last != nil {
		finished := last.FinishedAt
		report.LastSuccessfulSync = &finished
	}
	report.Stale = last == nil || q.clock.Since(last.FinishedAt) > q.cfg.StaleAfter
	report.Reliable = int(data.nonZero) >= q.cfg.MinCrewDensity && !report.Stale
	return report, nil
}

// complianceData is the cached part of a report; freshness is evaluated per call
type complianceData struct {
	snaps   []entity.ComplianceSnapshot
	nonZero int64
}

func (q *ComplianceQuery) snapshots(ctx context.Context, crewID, date string) (*complianceData, error) {
	key := "compliance|" + date + "|" + crewID
	if v, ok := q.cache.get(key); ok {
		return v.(*complianceData), nil
	}

	snaps, err := q.compliance.ListSnapshots(ctx, date, crewID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	nonZero, err := q.compliance.CountNonZero(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("count crew with hours: %w", err)
	}
	data := &complianceData{snaps: snaps, nonZero: nonZero}
	q.cache.set(key, data)
	return data, nil
}

// Summary counts crew per tier on the date
func (q *ComplianceQuery) Summary(ctx context.Context, date string) (entity.ComplianceSummary, error) {
	report, err := q.Query(ctx, "", date)
	if err != nil {
		return entity.ComplianceSummary{}, err
	}
	return entity.Summarize(report.Date, report.Snapshots), nil
}

// TopIntensity returns the crew with the most 28-day hours on the date
func (q *ComplianceQuery) TopIntensity(ctx context.Context, date string, limit int) ([]entity.ComplianceSnapshot, error) {
	report, err := q.Query(ctx, "", date)
	if err != nil {
		return nil, err
	}
	top := make([]entity.ComplianceSnapshot, len(report.Snapshots))
	copy(top, report.Snapshots)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Hours28Day != top[j].Hours28Day {
			return top[i].Hours28Day > top[j].Hours28Day
		}
		return top[i].CrewID < top[j].CrewID
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// Invalidate drops every cached result
func (q *ComplianceQuery) Invalidate() {
	q.cache.invalidate()
}

// CacheRecords lists the cached results with their computation time
func (q *ComplianceQuery) CacheRecords() []CacheRecord {
	return q.cache.records()
}
