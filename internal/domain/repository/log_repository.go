package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// ModLogRepository archives schedule modification log entries
type ModLogRepository interface {
	Append(ctx context.Context, entries []entity.ModificationLogEntry) (entity.UpsertCounts, error)
	FindByFlight(ctx context.Context, key entity.FlightKey) ([]entity.ModificationLogEntry, error)
}

// SyncJobRepository audits sync runs
type SyncJobRepository interface {
	Start(ctx context.Context, job entity.SyncJob) error
	Finish(ctx context.Context, job entity.SyncJob) error
	// LastSuccessful returns the latest completed run of the kind, nil when none.
	// An empty mode matches any mode.
	LastSuccessful(ctx context.Context, kind entity.EntityKind, mode entity.SyncMode) (*entity.SyncJob, error)
	Recent(ctx context.Context, limit int) ([]entity.SyncJob, error)
}

// QualityReportRepository archives data quality reports
type QualityReportRepository interface {
	Save(ctx context.Context, report entity.DataQualityReport) error
	Latest(ctx context.Context) (*entity.DataQualityReport, error)
}
