package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

// idleWindowDays is the span without roster activity that flags a crew member
const idleWindowDays = 28

// RejectCounter reports records rejected since it was last asked
type RejectCounter interface {
	TakeRejected() int
}

// QualityCheck produces the daily data quality report. Findings are recorded
// and alerted but never block ingestion.
type QualityCheck struct {
	roster     repository.RosterRepository
	jobs       repository.SyncJobRepository
	reports    repository.QualityReportRepository
	rejections RejectCounter
	mode       ModeReader
	notifier   repository.Notifier
	staleAfter time.Duration
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewQualityCheck creates the check. reports, rejections, mode and notifier may be nil.
func NewQualityCheck(
	roster repository.RosterRepository,
	jobs repository.SyncJobRepository,
	reports repository.QualityReportRepository,
	rejections RejectCounter,
	mode ModeReader,
	notifier repository.Notifier,
	staleAfter time.Duration,
	clock clockwork.Clock,
	logger logger.Logger,
) *QualityCheck {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QualityCheck{
		roster:     roster,
		jobs:       jobs,
		reports:    reports,
		rejections: rejections,
		mode:       mode,
		notifier:   notifier,
		staleAfter: staleAfter,
		clock:      clock,
		logger:     logger,
	}
}

// Run evaluates every check and archives the report
func (q *QualityCheck) Run(ctx context.Context) (*entity.DataQualityReport, error) {
	now := q.clock.Now().UTC()
	report := entity.DataQualityReport{GeneratedAt: now, Mode: entity.ModeLive}
	if q.mode != nil {
		report.Mode = q.mode.Mode()
	}

	orphans, err := q.roster.CountOrphans(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orphan roster: %w", err)
	}
	if orphans > 0 {
		report.Warnings = append(report.Warnings, entity.DataQualityWarning{
			Code:    entity.WarnOrphanRoster,
			Message: fmt.Sprintf("%d roster activities reference unknown crew", orphans),
			Count:   int(orphans),
		})
	}

	last, err := q.jobs.LastSuccessful(ctx, "", entity.ModeLive)
	if err != nil {
		return nil, fmt.Errorf("last successful sync: %w", err)
	}
	switch {
	case last == nil:
		report.Warnings = append(report.Warnings, entity.DataQualityWarning{
			Code:    entity.WarnStaleData,
			Message: "no successful live sync recorded",
			Count:   1,
		})
	case now.Sub(last.FinishedAt) > q.staleAfter:
		report.Warnings = append(report.Warnings, entity.DataQualityWarning{
			Code: entity.WarnStaleData,
			Message: fmt.Sprintf("last successful live sync (%s) finished %s ago",
				last.Kind, now.Sub(last.FinishedAt).Truncate(time.Minute)),
			Count: 1,
		})
	}

	today := entity.TruncateDay(now)
	idle, err := q.roster.CountCrewWithoutActivity(ctx, entity.NewTimeWindow(today.AddDate(0, 0, -(idleWindowDays-1)), today))
	if err != nil {
		return nil, fmt.Errorf("count idle crew: %w", err)
	}
	if idle > 0 {
		report.Warnings = append(report.Warnings, entity.DataQualityWarning{
			Code:    entity.WarnIdleCrew,
			Message: fmt.Sprintf("%d crew have no roster activity in the last %d days", idle, idleWindowDays),
			Count:   int(idle),
		})
	}

	if q.rejections != nil {
		if n := q.rejections.TakeRejected(); n > 0 {
			report.Warnings = append(report.Warnings, entity.DataQualityWarning{
				Code:    entity.WarnParseErrors,
				Message: fmt.Sprintf("%d malformed records skipped since the previous check", n),
				Count:   n,
			})
		}
	}

	if q.reports != nil {
		if err := q.reports.Save(ctx, report); err != nil {
			q.logger.Error("Failed to archive quality report", "error", err)
		}
	}
	if !report.OK() && q.notifier != nil {
		if err := q.notifier.Notify(ctx, QualityAlert(report)); err != nil {
			q.logger.Error("Failed to send quality alert", "error", err)
		}
	}

	q.logger.Info("Data quality check completed", "warnings", len(report.Warnings), "mode", report.Mode)
	return &report, nil
}
