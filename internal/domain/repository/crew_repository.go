package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// CrewRepository defines the reconciliation operations on crew master data
type CrewRepository interface {
	UpsertCrew(ctx context.Context, crew []entity.CrewMember) (entity.UpsertCounts, error)
	GetCrew(ctx context.Context, crewID string) (*entity.CrewMember, error)
	ListCrew(ctx context.Context) ([]entity.CrewMember, error)
	CountCrew(ctx context.Context) (int64, error)
}
