package repository

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// EmailRepository tracks export mails already seen on the mailbox
type EmailRepository interface {
	Save(ctx context.Context, email *entity.Email) error
	GetLastEmail(ctx context.Context) (*entity.Email, error)
	FindByEmailIDs(ctx context.Context, emailIDs []string) (map[string]*entity.Email, error)
	MarkAsProcessedByEmailID(ctx context.Context, emailID, status, processorType, errorDetail string, imported entity.UpsertCounts) error
}
