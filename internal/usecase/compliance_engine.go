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
	"crewsync-service/pkg/metrics"
)

// ComplianceConfig tunes the FTL engine
type ComplianceConfig struct {
	Thresholds entity.Thresholds
	// MinCrewDensity is the number of crew with non-zero 28-day hours a date needs to be published
	MinCrewDensity int
	// BestDateLookbackDays bounds the search for the last reliable date
	BestDateLookbackDays int
}

// RecomputeResult is the outcome of one wholesale recompute
type RecomputeResult struct {
	Date      string
	Snapshots []entity.ComplianceSnapshot
	NonZero   int
	// Persisted is false when the date failed the density check
	Persisted bool
	// BestDate is the most recent date that passed the density check
	BestDate string
	Summary  entity.ComplianceSummary
}

// ComplianceEngine computes trailing-window flown hours per crew member
type ComplianceEngine struct {
	crew       repository.CrewRepository
	roster     repository.RosterRepository
	flights    repository.FlightRepository
	compliance repository.ComplianceRepository
	gate       *StoreGate
	notifier   repository.Notifier
	cfg        ComplianceConfig
	metrics    *metrics.Metrics
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewComplianceEngine creates the engine. notifier and metrics may be nil.
func NewComplianceEngine(stores Stores, gate *StoreGate, notifier repository.Notifier, cfg ComplianceConfig, m *metrics.Metrics, clock clockwork.Clock, logger logger.Logger) *ComplianceEngine {
	if cfg.Thresholds == (entity.Thresholds{}) {
		cfg.Thresholds = entity.DefaultThresholds()
	}
	if cfg.BestDateLookbackDays <= 0 {
		cfg.BestDateLookbackDays = 7
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ComplianceEngine{
		crew:       stores.Crew,
		roster:     stores.Roster,
		flights:    stores.Flights,
		compliance: stores.Compliance,
		gate:       gate,
		notifier:   notifier,
		cfg:        cfg,
		metrics:    m,
		clock:      clock,
		logger:     logger,
	}
}

// Windows returns the inclusive 28-day and 12-month windows ending on asOf
func Windows(asOf string) (entity.TimeWindow, entity.TimeWindow, error) {
	day, err := entity.ParseDate(asOf)
	if err != nil {
		return entity.TimeWindow{}, entity.TimeWindow{}, fmt.Errorf("invalid calculation date %q: %w", asOf, err)
	}
	w28 := entity.NewTimeWindow(day.AddDate(0, 0, -27), day)
	// a year back, clamped so Feb 29 maps to Feb 28 rather than Mar 1
	d := day.Day()
	monthStart := time.Date(day.Year()-1, day.Month(), 1, 0, 0, 0, 0, day.Location())
	if last := monthStart.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	yearAgo := monthStart.AddDate(0, 0, d-1)
	w12 := entity.NewTimeWindow(yearAgo.AddDate(0, 0, 1), day)
	return w28, w12, nil
}

// Recompute replaces every snapshot of asOf from current stored state.
// A date that fails the density check is not persisted; the result then
// carries the best prior date instead.
func (e *ComplianceEngine) Recompute(ctx context.Context, asOf string) (*RecomputeResult, error) {
	w28, w12, err := Windows(asOf)
	if err != nil {
		return nil, err
	}

	var snapshots []entity.ComplianceSnapshot
	err = e.gate.Read(func() error {
		var err error
		snapshots, err = e.compute(ctx, asOf, w28, w12)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &RecomputeResult{
		Date:      asOf,
		Snapshots: snapshots,
		Summary:   entity.Summarize(asOf, snapshots),
	}
	for _, s := range snapshots {
		if s.Hours28Day > 0 {
			result.NonZero++
		}
	}

	if result.NonZero < e.cfg.MinCrewDensity {
		best, err := e.bestDateBefore(ctx, asOf)
		if err != nil {
			return nil, err
		}
		result.BestDate = best
		e.logger.Warn("Calculation date failed density check, not publishing",
			"date", asOf,
			"nonZero", result.NonZero,
			"minCrew", e.cfg.MinCrewDensity,
			"bestDate", best)
		return result, nil
	}

	if err := e.compliance.ReplaceSnapshots(ctx, asOf, snapshots); err != nil {
		return nil, fmt.Errorf("replace snapshots for %s: %w", asOf, err)
	}
	result.Persisted = true
	result.BestDate = asOf

	e.recordLevels(result.Summary)
	e.alert(ctx, result)

	e.logger.Info("FTL recompute completed",
		"date", asOf,
		"crew", result.Summary.Total,
		"warning", result.Summary.Warning,
		"critical", result.Summary.Critical)
	return result, nil
}

func (e *ComplianceEngine) compute(ctx context.Context, asOf string, w28, w12 entity.TimeWindow) ([]entity.ComplianceSnapshot, error) {
	crew, err := e.crew.ListCrew(ctx)
	if err != nil {
		return nil, fmt.Errorf("list crew: %w", err)
	}
	activities, err := e.roster.ListFlyActivities(ctx, w12)
	if err != nil {
		return nil, fmt.Errorf("list fly activities: %w", err)
	}
	blocks, err := e.flightBlocks(ctx, w12, activities)
	if err != nil {
		return nil, err
	}

	minutes28 := make(map[string]int, len(crew))
	minutes12 := make(map[string]int, len(crew))
	for _, a := range activities {
		day, err := entity.ParseDate(a.ActivityDate)
		if err != nil {
			continue
		}
		m := blockMinutes(a, blocks)
		minutes12[a.CrewID] += m
		if w28.Contains(day) {
			minutes28[a.CrewID] += m
		}
	}

	now := e.clock.Now().UTC()
	snapshots := make([]entity.ComplianceSnapshot, 0, len(crew))
	for _, c := range crew {
		h28 := entity.MinutesToHours(minutes28[c.CrewID])
		h12 := entity.MinutesToHours(minutes12[c.CrewID])
		snapshots = append(snapshots, entity.ComplianceSnapshot{
			CrewID:          c.CrewID,
			CrewName:        c.Name,
			CalculationDate: asOf,
			Hours28Day:      h28,
			Hours12Month:    h12,
			WarningLevel:    e.cfg.Thresholds.Classify(h28),
			Source:          entity.SourceEngine,
			ComputedAt:      now,
		})
	}
	return snapshots, nil
}

// flightBlocks loads block time of linked flights, only when some activity lacks its own
func (e *ComplianceEngine) flightBlocks(ctx context.Context, window entity.TimeWindow, activities []entity.RosterActivity) (map[entity.FlightKey]int, error) {
	needed := false
	for _, a := range activities {
		if a.BlockMinutes <= 0 {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	flights, err := e.flights.ListFlights(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	blocks := make(map[entity.FlightKey]int, len(flights))
	for _, f := range flights {
		if m := f.ComputedBlockMinutes(); m > 0 {
			blocks[f.FlightKey] = m
		}
	}
	return blocks, nil
}

// blockMinutes prefers the rostered block time, then the linked flight, then the duty span
func blockMinutes(a entity.RosterActivity, blocks map[entity.FlightKey]int) int {
	if a.BlockMinutes > 0 {
		return a.BlockMinutes
	}
	if key, ok := a.FlightKey(); ok {
		if m, ok := blocks[key]; ok {
			return m
		}
	}
	if !a.StartAt.IsZero() && a.EndAt.After(a.StartAt) {
		return int(a.EndAt.Sub(a.StartAt).Minutes())
	}
	return 0
}

func (e *ComplianceEngine) bestDateBefore(ctx context.Context, asOf string) (string, error) {
	day, err := entity.ParseDate(asOf)
	if err != nil {
		return "", err
	}
	from := entity.FormatDate(day.AddDate(0, 0, -e.cfg.BestDateLookbackDays))
	to := entity.FormatDate(day.AddDate(0, 0, -1))
	dates, err := e.compliance.DenseDates(ctx, from, to, e.cfg.MinCrewDensity)
	if err != nil {
		return "", fmt.Errorf("find best date: %w", err)
	}
	if len(dates) == 0 {
		return "", nil
	}
	return dates[0], nil
}

func (e *ComplianceEngine) recordLevels(s entity.ComplianceSummary) {
	if e.metrics == nil {
		return
	}
	e.metrics.CrewByLevel.WithLabelValues(string(entity.LevelNormal)).Set(float64(s.Normal))
	e.metrics.CrewByLevel.WithLabelValues(string(entity.LevelWarning)).Set(float64(s.Warning))
	e.metrics.CrewByLevel.WithLabelValues(string(entity.LevelCritical)).Set(float64(s.Critical))
}

func (e *ComplianceEngine) alert(ctx context.Context, result *RecomputeResult) {
	if e.notifier == nil || result.Summary.Warning+result.Summary.Critical == 0 {
		return
	}
	flagged := make([]entity.ComplianceSnapshot, 0, result.Summary.Warning+result.Summary.Critical)
	for _, s := range result.Snapshots {
		if s.WarningLevel != entity.LevelNormal {
			flagged = append(flagged, s)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Hours28Day > flagged[j].Hours28Day
	})
	alert := FTLAlert(result.Summary, flagged, e.cfg.Thresholds, e.clock.Now())
	if err := e.notifier.Notify(ctx, alert); err != nil {
		e.logger.Error("Failed to send FTL alert", "date", result.Date, "error", err)
	}
}
