package entity

import "time"

// EntityKind identifies one independently scheduled sync pass
type EntityKind string

const (
	KindCrew      EntityKind = "crew"
	KindRoster    EntityKind = "roster"
	KindFlight    EntityKind = "flight"
	KindModLog    EntityKind = "modlog"
	KindReference EntityKind = "reference"
	KindFTL       EntityKind = "ftl"
)

// AllKinds lists the kinds in the order a full sync runs them
var AllKinds = []EntityKind{KindReference, KindCrew, KindRoster, KindFlight, KindModLog, KindFTL}

// ParseEntityKind validates a kind given on the command line or over the wire
func ParseEntityKind(s string) (EntityKind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Source is the provenance of a stored row
type Source string

const (
	SourceAIMS Source = "AIMS"
	SourceCSV  Source = "CSV"
	// SourceEngine marks rows derived by the compliance engine
	SourceEngine Source = "ENGINE"
)

// SyncMode is the data mode owned by the sync orchestrator
type SyncMode string

const (
	ModeLive     SyncMode = "LIVE"
	ModeDegraded SyncMode = "DEGRADED"
	ModeCSV      SyncMode = "CSV"
)

// DateLayout is the canonical calendar-date representation used in keys
const DateLayout = "2006-01-02"

// TimeWindow is an inclusive range of calendar days in UTC
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// NewTimeWindow builds a window truncated to whole UTC days
func NewTimeWindow(from, to time.Time) TimeWindow {
	return TimeWindow{From: TruncateDay(from), To: TruncateDay(to)}
}

// Days returns every day in the window, oldest first
func (w TimeWindow) Days() []time.Time {
	var days []time.Time
	for d := TruncateDay(w.From); !d.After(w.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether t falls on a day inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	d := TruncateDay(t)
	return !d.Before(TruncateDay(w.From)) && !d.After(TruncateDay(w.To))
}

// TruncateDay returns midnight UTC of the day containing t
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD key into midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders t as a YYYY-MM-DD key in UTC
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
