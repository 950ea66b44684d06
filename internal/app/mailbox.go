package app

import (
	"context"
	"fmt"

	"crewsync-service/internal/infrastructure/oauth"
	"crewsync-service/internal/infrastructure/router"
	"crewsync-service/internal/interface/gmail"
	"crewsync-service/internal/usecase"
	"crewsync-service/templates"
)

// Mailbox builds the export mailbox poller. Returns nil when the mailbox is disabled.
func (a *App) Mailbox(ctx context.Context) (*gmail.GmailService, error) {
	if !a.Config.GmailEnabled {
		return nil, nil
	}
	log := a.Logger.With("component", "mailbox")

	subjects := router.NewSubjectRouter(log)
	for _, h := range templates.DefaultHandlers(a, log) {
		subjects.Register(h)
	}
	processor := usecase.NewEmailOrchestrator(a.Emails, subjects, log)

	gmailOAuth := oauth.NewGmailOAuth(
		a.Config.GmailClientID,
		a.Config.GmailClientSecret,
		a.Config.GmailRefreshToken,
		"",
		log,
	)
	svc, err := gmail.NewGmailService(ctx, gmailOAuth.GetTokenSource(ctx), a.Emails, processor, log,
		a.Config.GmailPollInterval, a.Config.GmailQuery)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}
