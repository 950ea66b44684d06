package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// ReferenceRepository defines operations on aircraft and airport reference data
type ReferenceRepository interface {
	UpsertAircraft(ctx context.Context, aircraft []entity.Aircraft) (entity.UpsertCounts, error)
	UpsertAirports(ctx context.Context, airports []entity.Airport) (entity.UpsertCounts, error)
	GetAircraft(ctx context.Context, registration string) (*entity.Aircraft, error)
	GetAirport(ctx context.Context, code string) (*entity.Airport, error)
}
