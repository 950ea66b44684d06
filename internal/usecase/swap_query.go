package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

const (
	topTailsLimit        = 5
	tailSeverityCritical = 10
	tailSeverityHigh     = 5
)

// SwapQuery serves the swap log and its KPIs
type SwapQuery struct {
	swaps   repository.SwapRepository
	flights repository.FlightRepository
	cache   *queryCache
	logger  logger.Logger
}

// NewSwapQuery creates the read model
func NewSwapQuery(swaps repository.SwapRepository, flights repository.FlightRepository, cacheTTL time.Duration, clock clockwork.Clock, logger logger.Logger) *SwapQuery {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SwapQuery{
		swaps:   swaps,
		flights: flights,
		cache:   newQueryCache(cacheTTL, clock),
		logger:  logger,
	}
}

// Query returns one page of events of the period, optionally of one category.
// The summary always covers every category of the period.
func (q *SwapQuery) Query(ctx context.Context, filter entity.SwapFilter) (*entity.SwapPage, error) {
	if filter.Period.From.IsZero() || filter.Period.To.IsZero() {
		return nil, fmt.Errorf("swap query needs a period")
	}
	filter.Period = entity.NewTimeWindow(filter.Period.From, filter.Period.To)
	if filter.Period.To.Before(filter.Period.From) {
		return nil, fmt.Errorf("swap query period ends before it starts")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	key := fmt.Sprintf("swaps|%s|%s|%s|%d|%d",
		entity.FormatDate(filter.Period.From), entity.FormatDate(filter.Period.To), filter.Category, filter.Page, filter.PageSize)
	if v, ok := q.cache.get(key); ok {
		return v.(*entity.SwapPage), nil
	}

	events, total, err := q.swaps.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query swaps: %w", err)
	}
	summary, err := q.summary(ctx, filter.Period)
	if err != nil {
		return nil, err
	}

	page := &entity.SwapPage{
		Events:   events,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    int(total),
		Summary:  summary,
	}
	q.cache.set(key, page)
	return page, nil
}

func (q *SwapQuery) summary(ctx context.Context, period entity.TimeWindow) (entity.SwapSummary, error) {
	inPeriod, err := q.swaps.ListInPeriod(ctx, period)
	if err != nil {
		return entity.SwapSummary{}, fmt.Errorf("list swaps in period: %w", err)
	}
	flights, err := q.flights.CountFlights(ctx, period)
	if err != nil {
		return entity.SwapSummary{}, fmt.Errorf("count flights: %w", err)
	}

	days := len(period.Days())
	previous := entity.NewTimeWindow(period.From.AddDate(0, 0, -days), period.From.AddDate(0, 0, -1))
	before, err := q.swaps.ListInPeriod(ctx, previous)
	if err != nil {
		return entity.SwapSummary{}, fmt.Errorf("list swaps in previous period: %w", err)
	}
	return SummarizeSwaps(inPeriod, int(flights), len(before)), nil
}

// Invalidate drops every cached result
func (q *SwapQuery) Invalidate() {
	q.cache.invalidate()
}

// SummarizeSwaps computes the swap KPIs of a period
func SummarizeSwaps(events []entity.SwapEvent, totalFlights, previousSwaps int) entity.SwapSummary {
	s := entity.SwapSummary{
		TotalSwaps:    len(events),
		PreviousSwaps: previousSwaps,
		RecoveryRate:  100,
	}
	if previousSwaps > 0 {
		s.TrendPercent = round1(float64(len(events)-previousSwaps) / float64(previousSwaps) * 100)
	}
	if len(events) == 0 {
		return s
	}

	impacted := make(map[string]struct{})
	byCategory := make(map[entity.SwapCategory]int)
	tails := make(map[string]int)
	var delaySum, delayed, recovered, completed int
	for _, e := range events {
		impacted[e.FlightDate+"|"+e.FlightNumber] = struct{}{}
		byCategory[e.Category]++
		if e.DelayMinutes > 0 {
			delaySum += e.DelayMinutes
			delayed++
		}
		switch e.RecoveryStatus {
		case entity.RecoveryRecovered:
			recovered++
			completed++
		case entity.RecoveryDelayed:
			completed++
		}
		for _, reg := range []string{e.OriginalReg, e.SwappedReg} {
			if reg != "" {
				tails[reg]++
			}
		}
	}

	s.ImpactedFlights = len(impacted)
	if delayed > 0 {
		s.AvgDelayHours = round1(float64(delaySum) / float64(delayed) / 60)
	}
	s.RecoveryRate = 0
	if completed > 0 {
		s.RecoveryRate = round1(float64(recovered) / float64(completed) * 100)
	}
	if totalFlights > 0 {
		s.SwapRate = round1(float64(len(events)) / float64(totalFlights) * 100)
	}

	for cat, n := range byCategory {
		s.ReasonBreakdown = append(s.ReasonBreakdown, entity.ReasonCount{Category: cat, Count: n})
	}
	sort.Slice(s.ReasonBreakdown, func(i, j int) bool {
		a, b := s.ReasonBreakdown[i], s.ReasonBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	for reg, n := range tails {
		s.TopImpactedTails = append(s.TopImpactedTails, entity.TailImpact{Registration: reg, SwapCount: n, Severity: tailSeverity(n)})
	}
	sort.Slice(s.TopImpactedTails, func(i, j int) bool {
		a, b := s.TopImpactedTails[i], s.TopImpactedTails[j]
		if a.SwapCount != b.SwapCount {
			return a.SwapCount > b.SwapCount
		}
		return a.Registration < b.Registration
	})
	if len(s.TopImpactedTails) > topTailsLimit {
		s.TopImpactedTails = s.TopImpactedTails[:topTailsLimit]
	}
	return s
}

func tailSeverity(count int) string {
	switch {
	case count >= tailSeverityCritical:
		return "CRITICAL"
	case count >= tailSeverityHigh:
		return "HIGH"
	default:
		return "NORMAL"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
