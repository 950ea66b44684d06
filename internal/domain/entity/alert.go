package entity

import (
	"errors"
	"time"
)

// Alert severities
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Alert kinds
const (
	AlertFallback = "SYNC_FALLBACK"
	AlertRecovery = "SYNC_RECOVERED"
	AlertAuth     = "SYNC_AUTH"
	AlertFTL      = "FTL_LIMIT"
	AlertQuality  = "DATA_QUALITY"
)

// Alert is an operational notification
type Alert struct {
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Validate checks the alert carries enough to be delivered
func (a Alert) Validate() error {
	if a.Kind == "" {
		return errors.New("alert kind is required")
	}
	if a.Text == "" && a.Title == "" {
		return errors.New("alert must have a title or text")
	}
	return nil
}
