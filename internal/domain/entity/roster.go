package entity

import (
	"strings"
	"time"
	"unicode"
)

// ActivityType classifies a roster duty
type ActivityType string

const (
	ActivityFly      ActivityType = "fly"
	ActivityStandby  ActivityType = "standby"
	ActivitySick     ActivityType = "sick"
	ActivityOff      ActivityType = "off"
	ActivityTraining ActivityType = "training"
	ActivityLeave    ActivityType = "leave"
	ActivityOther    ActivityType = "other"
)

var dutyCodeTypes = map[string]ActivityType{
	"SBY": ActivityStandby, "STBY": ActivityStandby, "STB": ActivityStandby, "STANDBY": ActivityStandby,
	"SL": ActivitySick, "SICK": ActivitySick, "ILL": ActivitySick, "CSL": ActivitySick, "CSICK": ActivitySick,
	"NS": ActivitySick, "NOSHOW": ActivitySick,
	"OFF": ActivityOff, "DO": ActivityOff, "R": ActivityOff, "REST": ActivityOff,
	"TRN": ActivityTraining, "SIM": ActivityTraining, "GRD": ActivityTraining, "TRAINING": ActivityTraining,
	"LVE": ActivityLeave, "AL": ActivityLeave, "ANNUAL": ActivityLeave, "LEAVE": ActivityLeave,
	"FLY": ActivityFly, "FLT": ActivityFly,
}

// ClassifyDutyCode maps a raw duty code to an activity type. A numeric code or one
// carrying an airline designator followed by digits is a flight.
func ClassifyDutyCode(code string) ActivityType {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return ActivityOther
	}
	if t, ok := dutyCodeTypes[c]; ok {
		return t
	}
	if isFlightDesignator(c) {
		return ActivityFly
	}
	return ActivityOther
}

func isFlightDesignator(c string) bool {
	digits := strings.TrimLeftFunc(c, unicode.IsLetter)
	prefix := len(c) - len(digits)
	if prefix > 3 || digits == "" {
		return false
	}
	digits = strings.TrimRightFunc(digits, unicode.IsLetter)
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return digits != ""
}

// RosterActivity is one duty or flight assignment of a crew member on a date
type RosterActivity struct {
	CrewID       string
	ActivityDate string
	DutyCode     string
	ActivityType ActivityType
	FlightNumber string
	Departure    string
	StartAt      time.Time
	EndAt        time.Time
	BlockMinutes int
	// CrewKnown is false when the crew master record did not exist at write time
	CrewKnown bool
	Source    Source
	UpdatedAt time.Time
}

// RosterKey is the natural identifier of a roster activity
type RosterKey struct {
	CrewID       string
	ActivityDate string
	DutyCode     string
	FlightNumber string
	Departure    string
}

// Key returns the natural identifier of the activity
func (a RosterActivity) Key() RosterKey {
	return RosterKey{
		CrewID:       a.CrewID,
		ActivityDate: a.ActivityDate,
		DutyCode:     a.DutyCode,
		FlightNumber: a.FlightNumber,
		Departure:    a.Departure,
	}
}

// FlightKey returns the linked flight reference, if the activity is a flight
func (a RosterActivity) FlightKey() (FlightKey, bool) {
	if a.ActivityType != ActivityFly || a.FlightNumber == "" || a.Departure == "" {
		return FlightKey{}, false
	}
	return FlightKey{FlightDate: a.ActivityDate, FlightNumber: a.FlightNumber, Departure: a.Departure}, true
}

// Provenance returns the source and timestamp of the record
func (a RosterActivity) Provenance() Provenance {
	return Provenance{Source: a.Source, UpdatedAt: a.UpdatedAt}
}

// SameContent compares every field except provenance and the orphan flag
func (a RosterActivity) SameContent(o RosterActivity) bool {
	return a.Key() == o.Key() &&
		a.ActivityType == o.ActivityType &&
		a.StartAt.Equal(o.StartAt) &&
		a.EndAt.Equal(o.EndAt) &&
		a.BlockMinutes == o.BlockMinutes
}
