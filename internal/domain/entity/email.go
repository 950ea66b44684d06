package entity

import (
	"path/filepath"
	"strings"
	"time"
)

// Export mail process status
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusSkipped    = "SKIPPED"
)

// Email is a message received on the report export mailbox
type Email struct {
	EmailID         string       `bson:"emailId"`
	From            string       `bson:"from"`
	Subject         string       `bson:"subject"`
	ReceivedAt      time.Time    `bson:"receivedAt"`
	Attachments     []Attachment `bson:"-"`
	AttachmentNames []string     `bson:"attachmentNames"`
	ProcessedAt     time.Time    `bson:"processedAt,omitempty"`
	ProcessStatus   string       `bson:"processStatus"`
	ProcessorType   string       `bson:"processorType,omitempty"`
	ErrorDetail     string       `bson:"errorDetail,omitempty"`
	Imported        UpsertCounts `bson:"imported"`
}

// Attachment is one file attached to an export mail
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsTabular reports whether the attachment looks like a CSV export
func (a Attachment) IsTabular() bool {
	ext := strings.ToLower(filepath.Ext(a.Filename))
	return ext == ".csv" || ext == ".txt" || strings.Contains(a.ContentType, "csv")
}
