package usecase

import (
	"fmt"
	"strings"
	"time"

	"crewsync-service/internal/domain/entity"
)

// maxAlertRows caps the crew listed in one FTL alert
const maxAlertRows = 10

// FTLAlert lists crew at or above the warning limit, highest first
func FTLAlert(summary entity.ComplianceSummary, flagged []entity.ComplianceSnapshot, th entity.Thresholds, at time.Time) entity.Alert {
	severity := entity.SeverityWarning
	if summary.Critical > 0 {
		severity = entity.SeverityCritical
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FTL status %s: %d critical (>= %.0fh), %d warning (>= %.0fh) of %d crew\n",
		summary.Date, summary.Critical, th.Critical, summary.Warning, th.Warning, summary.Total)
	for i, s := range flagged {
		if i == maxAlertRows {
			fmt.Fprintf(&b, "... and %d more\n", len(flagged)-maxAlertRows)
			break
		}
		fmt.Fprintf(&b, "- %s %s: %.2fh / 28d, %.2fh / 12m [%s]\n", s.CrewID, s.CrewName, s.Hours28Day, s.Hours12Month, s.WarningLevel)
	}

	return entity.Alert{
		Kind:       entity.AlertFTL,
		Severity:   severity,
		Title:      fmt.Sprintf("FTL limits %s", summary.Date),
		Text:       strings.TrimRight(b.String(), "\n"),
		OccurredAt: at.UTC(),
	}
}

// FallbackAlert announces the switch to tabular fallback data
func FallbackAlert(kind entity.EntityKind, failures int, cause error, at time.Time) entity.Alert {
	return entity.Alert{
		Kind:     entity.AlertFallback,
		Severity: entity.SeverityCritical,
		Title:    "Live sync switched to CSV fallback",
		Text: fmt.Sprintf("%s sync failed %d consecutive cycles: %v. Serving last-known-good data; upload exports to keep it current.",
			kind, failures, cause),
		OccurredAt: at.UTC(),
	}
}

// AuthAlert reports rejected live source credentials
func AuthAlert(kind entity.EntityKind, cause error, at time.Time) entity.Alert {
	return entity.Alert{
		Kind:       entity.AlertAuth,
		Severity:   entity.SeverityCritical,
		Title:      "Live source rejected credentials",
		Text:       fmt.Sprintf("%s sync aborted: %v. Switched to CSV fallback until credentials are fixed.", kind, cause),
		OccurredAt: at.UTC(),
	}
}

// RecoveryAlert announces the return to live data
func RecoveryAlert(kind entity.EntityKind, from entity.SyncMode, at time.Time) entity.Alert {
	return entity.Alert{
		Kind:       entity.AlertRecovery,
		Severity:   entity.SeverityInfo,
		Title:      "Live sync recovered",
		Text:       fmt.Sprintf("%s sync succeeded against the live source, mode %s -> %s.", kind, from, entity.ModeLive),
		OccurredAt: at.UTC(),
	}
}

// QualityAlert summarizes the warnings of a quality report
func QualityAlert(report entity.DataQualityReport) entity.Alert {
	var b strings.Builder
	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "- %s: %s\n", w.Code, w.Message)
	}
	return entity.Alert{
		Kind:       entity.AlertQuality,
		Severity:   entity.SeverityWarning,
		Title:      fmt.Sprintf("Data quality: %d warning(s)", len(report.Warnings)),
		Text:       strings.TrimRight(b.String(), "\n"),
		OccurredAt: report.GeneratedAt.UTC(),
	}
}
