package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// AssignmentSnapshotRepository stores the first observed aircraft per flight leg
type AssignmentSnapshotRepository interface {
	// Baseline creates the snapshot when absent and returns the stored baseline either way
	Baseline(ctx context.Context, snapshot entity.AircraftAssignmentSnapshot) (*entity.AircraftAssignmentSnapshot, bool, error)
	Get(ctx context.Context, key entity.FlightKey) (*entity.AircraftAssignmentSnapshot, error)
}

// SwapRepository is the append-only swap event log
type SwapRepository interface {
	// CreateIfAbsent inserts the event unless its (flight, original, swapped) pair exists.
	// On insert the event ID is assigned.
	CreateIfAbsent(ctx context.Context, event *entity.SwapEvent) (bool, error)
	ListByFlight(ctx context.Context, key entity.FlightKey) ([]entity.SwapEvent, error)
	ListPending(ctx context.Context) ([]entity.SwapEvent, error)
	UpdateRecovery(ctx context.Context, eventID string, status entity.RecoveryStatus, delayMinutes int) error
	Query(ctx context.Context, filter entity.SwapFilter) ([]entity.SwapEvent, int64, error)
	ListInPeriod(ctx context.Context, window entity.TimeWindow) ([]entity.SwapEvent, error)
}
