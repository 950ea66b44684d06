package entity

import (
	"math"
	"time"
)

// WarningLevel is the FTL tier of a crew member
type WarningLevel string

const (
	LevelNormal   WarningLevel = "NORMAL"
	LevelWarning  WarningLevel = "WARNING"
	LevelCritical WarningLevel = "CRITICAL"
)

// Thresholds are the 28-day hour limits that raise the warning tier
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds returns the 85/95 hour limits
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 85, Critical: 95}
}

// Classify maps 28-day hours to a tier, first match wins.
// 12-month hours are reported only and never raise the tier.
func (t Thresholds) Classify(hours28Day float64) WarningLevel {
	h := RoundHours(hours28Day)
	switch {
	case h >= t.Critical:
		return LevelCritical
	case h >= t.Warning:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// RoundHours rounds to two decimals
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// MinutesToHours converts block minutes to hours rounded to two decimals
func MinutesToHours(minutes int) float64 {
	return RoundHours(float64(minutes) / 60)
}

// ComplianceSnapshot is the FTL state of one crew member on one calculation date
type ComplianceSnapshot struct {
	CrewID          string
	CrewName        string
	CalculationDate string
	Hours28Day      float64
	Hours12Month    float64
	WarningLevel    WarningLevel
	Source          Source
	ComputedAt      time.Time
}

// ComplianceReport is the read model served to report collaborators
type ComplianceReport struct {
	Date      string
	Snapshots []ComplianceSnapshot
	// Reliable is false when the date failed the density check or live data is stale
	Reliable           bool
	Stale              bool
	LastSuccessfulSync *time.Time
	Mode               SyncMode
}

// ComplianceSummary counts crew per tier for a date
type ComplianceSummary struct {
	Date     string
	Total    int
	Normal   int
	Warning  int
	Critical int
}

// Summarize counts tiers over a set of snapshots
func Summarize(date string, snaps []ComplianceSnapshot) ComplianceSummary {
	s := ComplianceSummary{Date: date, Total: len(snaps)}
	for _, sn := range snaps {
		switch sn.WarningLevel {
		case LevelCritical:
			s.Critical++
		case LevelWarning:
			s.Warning++
		default:
			s.Normal++
		}
	}
	return s
}
