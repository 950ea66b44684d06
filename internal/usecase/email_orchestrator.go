package usecase

import (
	"context"
	"fmt"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

// EmailOrchestrator routes export mails to their report handler and records the outcome
type EmailOrchestrator struct {
	emailRepo repository.EmailRepository
	router    SubjectRouter
	logger    logger.Logger
}

// NewEmailOrchestrator creates a new email orchestrator
func NewEmailOrchestrator(
	emailRepo repository.EmailRepository,
	router SubjectRouter,
	logger logger.Logger,
) *EmailOrchestrator {
	return &EmailOrchestrator{
		emailRepo: emailRepo,
		router:    router,
		logger:    logger,
	}
}

// ProcessEmail processes a single email immediately after fetching.
// Handler failures are recorded on the mail and do not stop the poll.
func (o *EmailOrchestrator) ProcessEmail(ctx context.Context, email *entity.Email) error {
	handler := o.router.GetHandler(email.Subject)
	if handler == nil {
		o.logger.Debug("No handler found for email",
			"subject", email.Subject,
			"emailID", email.EmailID)

		// not an error, the mailbox also receives unrelated mail
		return o.emailRepo.MarkAsProcessedByEmailID(
			ctx,
			email.EmailID,
			entity.StatusSkipped,
			"none",
			"no matching report handler",
			entity.UpsertCounts{},
		)
	}

	o.logger.Info("Processing email with handler",
		"emailID", email.EmailID,
		"handler", handler.Name(),
		"subject", email.Subject,
		"attachments", len(email.Attachments))

	imported, err := handler.Process(ctx, email)
	if err != nil {
		o.logger.Error("Handler failed to process email",
			"emailID", email.EmailID,
			"handler", handler.Name(),
			"error", err)

		if markErr := o.emailRepo.MarkAsProcessedByEmailID(
			ctx,
			email.EmailID,
			entity.StatusFailed,
			handler.Name(),
			err.Error(),
			imported,
		); markErr != nil {
			return fmt.Errorf("failed to mark email %s failed: %w", email.EmailID, markErr)
		}
		return nil
	}

	o.logger.Info("Email processed successfully",
		"emailID", email.EmailID,
		"handler", handler.Name(),
		"inserted", imported.Inserted,
		"updated", imported.Updated,
		"skipped", imported.Skipped)

	return o.emailRepo.MarkAsProcessedByEmailID(
		ctx,
		email.EmailID,
		entity.StatusCompleted,
		handler.Name(),
		"",
		imported,
	)
}
