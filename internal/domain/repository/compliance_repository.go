package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// ComplianceRepository stores FTL snapshots
type ComplianceRepository interface {
	// ReplaceSnapshots atomically replaces every snapshot of the calculation date
	ReplaceSnapshots(ctx context.Context, date string, snapshots []entity.ComplianceSnapshot) error
	// SaveReported stores crew-hour totals from an export without touching other crew of the date
	SaveReported(ctx context.Context, snapshots []entity.ComplianceSnapshot) (entity.UpsertCounts, error)
	// ListSnapshots returns snapshots of the date, optionally filtered by crew
	ListSnapshots(ctx context.Context, date, crewID string) ([]entity.ComplianceSnapshot, error)
	// DenseDates returns dates in [from, to] with at least minCrew crew having non-zero 28-day hours, newest first
	DenseDates(ctx context.Context, from, to string, minCrew int) ([]string, error)
	// CountNonZero counts crew with non-zero 28-day hours on the date
	CountNonZero(ctx context.Context, date string) (int64, error)
}
