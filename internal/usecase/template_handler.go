package usecase

import (
	"context"

	"crewsync-service/internal/domain/entity"
)

// TemplateHandler defines the interface for export mail handlers
type TemplateHandler interface {
	// CanHandle determines if this handler can process the given email subject
	CanHandle(subject string) bool

	// Name identifies the handler on the processed mail record
	Name() string

	// Process imports the attachments of the email
	Process(ctx context.Context, email *entity.Email) (entity.UpsertCounts, error)
}

// SubjectRouter routes emails to the appropriate handler based on subject
type SubjectRouter interface {
	// Register registers a handler for specific subject patterns
	Register(handler TemplateHandler)

	// GetHandler returns the appropriate handler for a given subject
	GetHandler(subject string) TemplateHandler
}
