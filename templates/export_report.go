package templates

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/usecase"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/utils"
)

// DefaultSubjectPatterns are the subjects ops staff use when mailing each export
var DefaultSubjectPatterns = map[entity.ReportType]string{
	entity.ReportCrewHours: `(?i)RolCrTot|crew\s*hours`,
	entity.ReportDayReport: `(?i)DayRep|day\s*report`,
	entity.ReportStandby:   `(?i)stand-?by`,
	entity.ReportRoster:    `(?i)\broster\b`,
}

var subjectDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`)

// Ingestor imports one tabular export
type Ingestor interface {
	Ingest(ctx context.Context, upload entity.Upload) (entity.SyncResult, error)
}

// ExportReportHandler imports the CSV attachments of one report type
type ExportReportHandler struct {
	reportType entity.ReportType
	subject    *regexp.Regexp
	ingestor   Ingestor
	logger     logger.Logger
}

var _ usecase.TemplateHandler = (*ExportReportHandler)(nil)

// NewExportReportHandler creates a handler for mails whose subject matches pattern
func NewExportReportHandler(reportType entity.ReportType, pattern string, ingestor Ingestor, logger logger.Logger) (*ExportReportHandler, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid subject pattern for %s: %w", reportType, err)
	}
	return &ExportReportHandler{
		reportType: reportType,
		subject:    re,
		ingestor:   ingestor,
		logger:     logger,
	}, nil
}

// handlerOrder puts standby ahead of roster: "Standby roster" is a standby export
var handlerOrder = []entity.ReportType{
	entity.ReportCrewHours,
	entity.ReportDayReport,
	entity.ReportStandby,
	entity.ReportRoster,
}

// DefaultHandlers builds one handler per supported export
func DefaultHandlers(ingestor Ingestor, logger logger.Logger) []*ExportReportHandler {
	handlers := make([]*ExportReportHandler, 0, len(handlerOrder))
	for _, t := range handlerOrder {
		h, err := NewExportReportHandler(t, DefaultSubjectPatterns[t], ingestor, logger)
		if err != nil {
			// patterns are compile-time constants
			panic(err)
		}
		handlers = append(handlers, h)
	}
	return handlers
}

// CanHandle determines if this handler can process the given email subject
func (h *ExportReportHandler) CanHandle(subject string) bool {
	return h.subject.MatchString(subject)
}

// Name identifies the handler
func (h *ExportReportHandler) Name() string {
	return string(h.reportType)
}

// Process ingests every tabular attachment. One bad file does not stop the others.
func (h *ExportReportHandler) Process(ctx context.Context, email *entity.Email) (entity.UpsertCounts, error) {
	var (
		total entity.UpsertCounts
		errs  []error
		files int
	)
	reportDate := dateFromSubject(email.Subject)

	for _, att := range email.Attachments {
		if !att.IsTabular() {
			continue
		}
		files++
		upload := entity.Upload{
			Type:       h.reportType,
			Filename:   att.Filename,
			Data:       att.Data,
			ExportedAt: email.ReceivedAt,
			ReportDate: reportDate,
		}
		result, err := h.ingestor.Ingest(ctx, upload)
		total.Add(entity.UpsertCounts{
			Inserted:  result.Inserted,
			Updated:   result.Updated,
			Skipped:   result.Skipped,
			Unchanged: result.Unchanged,
		})
		if err != nil {
			h.logger.Error("Failed to ingest attachment",
				"emailID", email.EmailID,
				"file", att.Filename,
				"error", err)
			errs = append(errs, err)
		}
	}

	if files == 0 {
		return total, fmt.Errorf("no tabular attachment on %q", email.Subject)
	}
	return total, errors.Join(errs...)
}

// dateFromSubject extracts the as-of date of an export, empty when absent
func dateFromSubject(subject string) string {
	m := subjectDate.FindString(subject)
	if m == "" {
		return ""
	}
	d, err := utils.ParseFlexibleDate(m)
	if err != nil {
		return ""
	}
	return entity.FormatDate(d)
}
