package entity

import "time"

// ReportType identifies the header contract of a tabular export
type ReportType string

const (
	ReportCrewHours ReportType = "crew-hours"
	ReportDayReport ReportType = "day-report"
	ReportRoster    ReportType = "roster"
	ReportStandby   ReportType = "standby"
)

// ReportTypes lists the supported export types
var ReportTypes = []ReportType{ReportCrewHours, ReportDayReport, ReportRoster, ReportStandby}

// ParseReportType validates a report type name
func ParseReportType(s string) (ReportType, bool) {
	for _, t := range ReportTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Kind returns the entity kind an export feeds
func (t ReportType) Kind() EntityKind {
	switch t {
	case ReportCrewHours:
		return KindCrew
	case ReportDayReport:
		return KindFlight
	default:
		return KindRoster
	}
}

// Upload is one tabular export handed to the fallback ingestion path
type Upload struct {
	Type     ReportType
	Filename string
	Data     []byte
	// ExportedAt is the provenance timestamp applied to every row
	ExportedAt time.Time
	// ReportDate is the as-of date of crew-hour exports, when known
	ReportDate string
}
