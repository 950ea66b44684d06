package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// RosterRepository defines the reconciliation operations on roster activities
type RosterRepository interface {
	UpsertRoster(ctx context.Context, activities []entity.RosterActivity) (entity.UpsertCounts, error)
	// ListFlyActivities returns fly activities whose activity date falls in the window
	ListFlyActivities(ctx context.Context, window entity.TimeWindow) ([]entity.RosterActivity, error)
	// RelinkOrphans clears the orphan flag of activities whose crew now exists
	RelinkOrphans(ctx context.Context) (int64, error)
	CountOrphans(ctx context.Context) (int64, error)
	// CountCrewWithoutActivity counts known crew with no activity in the window
	CountCrewWithoutActivity(ctx context.Context, window entity.TimeWindow) (int64, error)
	Count(ctx context.Context) (int64, error)
}
