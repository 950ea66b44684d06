package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// FlightRepository defines the reconciliation operations on flight legs
type FlightRepository interface {
	UpsertFlights(ctx context.Context, flights []entity.FlightRecord) (entity.UpsertCounts, error)
	GetFlight(ctx context.Context, key entity.FlightKey) (*entity.FlightRecord, error)
	ListFlights(ctx context.Context, window entity.TimeWindow) ([]entity.FlightRecord, error)
	CountFlights(ctx context.Context, window entity.TimeWindow) (int64, error)
}
