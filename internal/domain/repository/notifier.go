package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// Notifier delivers operational alerts
type Notifier interface {
	Notify(ctx context.Context, alert entity.Alert) error
}
