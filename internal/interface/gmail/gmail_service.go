package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

// MailProcessor handles one freshly stored export mail
type MailProcessor interface {
	ProcessEmail(ctx context.Context, email *entity.Email) error
}

// GmailService polls the export mailbox and hands new mails to the processor
type GmailService struct {
	gmailService *gmail.Service
	emailRepo    repository.EmailRepository
	processor    MailProcessor
	logger       logger.Logger
	pollInterval time.Duration
	query        string
}

// NewGmailService creates a new Gmail poller
func NewGmailService(
	ctx context.Context,
	tokenSource oauth2.TokenSource,
	emailRepo repository.EmailRepository,
	processor MailProcessor,
	logger logger.Logger,
	pollInterval time.Duration,
	query string,
) (*GmailService, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &GmailService{
		gmailService: service,
		emailRepo:    emailRepo,
		processor:    processor,
		logger:       logger,
		pollInterval: pollInterval,
		query:        query,
	}, nil
}

// StartPolling polls Gmail until ctx is done
func (s *GmailService) StartPolling(ctx context.Context) {
	if err := s.FetchAndProcessEmails(ctx); err != nil {
		s.logger.Error("Initial mailbox poll failed", "error", err)
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Gmail polling stopped")
			return
		case <-ticker.C:
			s.logger.Debug("Polling Gmail for new exports")
			if err := s.FetchAndProcessEmails(ctx); err != nil {
				s.logger.Error("Error polling Gmail", "error", err)
			}
		}
	}
}

// FetchAndProcessEmails fetches mails newer than the last stored one and processes them
func (s *GmailService) FetchAndProcessEmails(ctx context.Context) error {
	lastEmail, err := s.emailRepo.GetLastEmail(ctx)
	if err != nil {
		s.logger.Error("Failed to get last email", "error", err)
	}

	fetchFrom := time.Now().AddDate(0, 0, -7)
	if lastEmail != nil {
		fetchFrom = lastEmail.ReceivedAt
	}

	query := strings.TrimSpace(fmt.Sprintf("%s after:%s", s.query, fetchFrom.Format("2006/01/02")))
	var messages []*gmail.Message
	err = s.gmailService.Users.Messages.List("me").Q(query).Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		messages = append(messages, resp.Messages...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if len(messages) == 0 {
		s.logger.Debug("No new messages found")
		return nil
	}

	emailIDs := make([]string, len(messages))
	for i, msg := range messages {
		emailIDs[i] = msg.Id
	}

	existingEmails, err := s.emailRepo.FindByEmailIDs(ctx, emailIDs)
	if err != nil {
		s.logger.Error("Failed to check existing emails", "error", err)
		existingEmails = make(map[string]*entity.Email)
	}

	newCount := 0
	processedCount := 0

	for _, msg := range messages {
		if _, exists := existingEmails[msg.Id]; exists {
			continue
		}

		fullMsg, err := s.gmailService.Users.Messages.Get("me", msg.Id).Context(ctx).Do()
		if err != nil {
			s.logger.Error("Failed to get message", "msgId", msg.Id, "error", err)
			continue
		}

		email, err := s.convertToEmail(ctx, fullMsg)
		if err != nil {
			s.logger.Error("Failed to convert message", "msgId", msg.Id, "error", err)
			continue
		}

		if err := s.emailRepo.Save(ctx, email); err != nil {
			s.logger.Error("Failed to save email", "emailID", email.EmailID, "error", err)
			continue
		}
		newCount++

		if err := s.processor.ProcessEmail(ctx, email); err != nil {
			s.logger.Error("Failed to process email", "emailID", email.EmailID, "error", err)
		} else {
			processedCount++
		}
	}

	s.logger.Info("Mailbox poll completed",
		"totalMessages", len(messages),
		"newEmails", newCount,
		"processedEmails", processedCount)

	return nil
}

// convertToEmail converts a Gmail message to the domain entity, downloading attachments
func (s *GmailService) convertToEmail(ctx context.Context, msg *gmail.Message) (*entity.Email, error) {
	if msg.Payload == nil {
		return nil, fmt.Errorf("message %s has no payload", msg.Id)
	}
	email := &entity.Email{
		EmailID:       msg.Id,
		ProcessStatus: entity.StatusPending,
		ReceivedAt:    time.UnixMilli(msg.InternalDate).UTC(),
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			email.From = header.Value
		case "Subject":
			email.Subject = header.Value
		}
	}

	err := walkParts(msg.Payload, func(part *gmail.MessagePart) error {
		if part.Filename == "" || part.Body == nil {
			return nil
		}
		data, err := s.attachmentData(ctx, msg.Id, part.Body)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", part.Filename, err)
		}
		email.Attachments = append(email.Attachments, entity.Attachment{
			Filename:    part.Filename,
			ContentType: part.MimeType,
			Data:        data,
		})
		email.AttachmentNames = append(email.AttachmentNames, part.Filename)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return email, nil
}

func (s *GmailService) attachmentData(ctx context.Context, msgID string, body *gmail.MessagePartBody) ([]byte, error) {
	encoded := body.Data
	if encoded == "" && body.AttachmentId != "" {
		att, err := s.gmailService.Users.Messages.Attachments.Get("me", msgID, body.AttachmentId).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		encoded = att.Data
	}
	return decodeBase64URL(encoded)
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart) error) error {
	if err := fn(part); err != nil {
		return err
	}
	for _, p := range part.Parts {
		if err := walkParts(p, fn); err != nil {
			return err
		}
	}
	return nil
}

// decodeBase64URL accepts padded and unpadded URL-safe base64
func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
