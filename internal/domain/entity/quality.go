package entity

import "time"

// Data quality warning codes
const (
	WarnOrphanRoster = "ORPHAN_ROSTER"
	WarnStaleData    = "STALE_DATA"
	WarnIdleCrew     = "CREW_WITHOUT_ACTIVITY"
	WarnParseErrors  = "PARSE_ERRORS"
)

// DataQualityWarning is an operational finding that never blocks ingestion
type DataQualityWarning struct {
	Code    string `bson:"code"`
	Message string `bson:"message"`
	Count   int    `bson:"count"`
}

// DataQualityReport is the output of the daily quality check
type DataQualityReport struct {
	GeneratedAt time.Time            `bson:"generatedAt"`
	Mode        SyncMode             `bson:"mode"`
	Warnings    []DataQualityWarning `bson:"warnings"`
}

// OK reports whether the check produced no warnings
func (r DataQualityReport) OK() bool {
	return len(r.Warnings) == 0
}
