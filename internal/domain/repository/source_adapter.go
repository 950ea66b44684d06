package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// SourceAdapter fetches canonical records of one kind from a data source.
// Malformed records are skipped and reported in Batch.Rejected; transport failures
// wrap entity.ErrSourceUnavailable or entity.ErrAuth.
type SourceAdapter interface {
	Source() entity.Source
	Fetch(ctx context.Context, kind entity.EntityKind, window entity.TimeWindow) (*entity.Batch, error)
}
