package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

// WebhookNotifier posts operational alerts to a chat webhook
type WebhookNotifier struct {
	logger      logger.Logger
	url         string
	bearerToken string
	client      *http.Client
}

// NewWebhookNotifier creates a notifier. With an empty URL alerts are only logged.
func NewWebhookNotifier(url, bearerToken string, logger logger.Logger) repository.Notifier {
	return &WebhookNotifier{
		logger:      logger,
		url:         url,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type webhookMessage struct {
	Text  string       `json:"text"`
	Alert entity.Alert `json:"alert"`
}

// Notify sends the alert
func (n *WebhookNotifier) Notify(ctx context.Context, alert entity.Alert) error {
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}

	if n.url == "" {
		n.logger.Warn("Alert raised",
			"kind", alert.Kind,
			"severity", alert.Severity,
			"title", alert.Title,
			"text", alert.Text)
		return nil
	}

	jsonData, err := json.Marshal(webhookMessage{Text: alert.Text, Alert: alert})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if n.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("alert webhook returned status %d: %v", resp.StatusCode, errorBody)
	}

	n.logger.Info("Alert delivered",
		"kind", alert.Kind,
		"severity", alert.Severity)

	return nil
}
