package entity

import (
	"strings"
	"time"
)

// FlightKey is the composite natural identifier of a flight leg
type FlightKey struct {
	FlightDate   string
	FlightNumber string
	Departure    string
}

func (k FlightKey) String() string {
	return k.FlightDate + "/" + k.FlightNumber + "/" + k.Departure
}

// FlightRecord is one scheduled or operated flight leg. All times are UTC.
type FlightRecord struct {
	FlightKey
	Carrier      string
	Arrival      string
	AircraftReg  string
	AircraftType string
	Status       string
	STD          *time.Time
	STA          *time.Time
	ETD          *time.Time
	ETA          *time.Time
	ATD          *time.Time
	ATA          *time.Time
	BlockMinutes int
	Pax          int
	Source       Source
	UpdatedAt    time.Time
}

// Provenance returns the source and timestamp of the record
func (f FlightRecord) Provenance() Provenance {
	return Provenance{Source: f.Source, UpdatedAt: f.UpdatedAt}
}

// SameContent compares every field except provenance
func (f FlightRecord) SameContent(o FlightRecord) bool {
	return f.FlightKey == o.FlightKey &&
		f.Carrier == o.Carrier &&
		f.Arrival == o.Arrival &&
		f.AircraftReg == o.AircraftReg &&
		f.AircraftType == o.AircraftType &&
		f.Status == o.Status &&
		sameInstant(f.STD, o.STD) &&
		sameInstant(f.STA, o.STA) &&
		sameInstant(f.ETD, o.ETD) &&
		sameInstant(f.ETA, o.ETA) &&
		sameInstant(f.ATD, o.ATD) &&
		sameInstant(f.ATA, o.ATA) &&
		f.BlockMinutes == o.BlockMinutes &&
		f.Pax == o.Pax
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// DelayMinutes is actual (or estimated) departure minus scheduled departure, never negative.
// A difference below minus twelve hours is treated as a departure past midnight.
func (f FlightRecord) DelayMinutes() int {
	if f.STD == nil {
		return 0
	}
	dep := f.ATD
	if dep == nil {
		dep = f.ETD
	}
	if dep == nil {
		return 0
	}
	diff := int(dep.Sub(*f.STD).Minutes())
	if diff < -720 {
		diff += 1440
	}
	if diff < 0 {
		return 0
	}
	return diff
}

// IsCancelled reports whether the status marks the leg as cancelled
func (f FlightRecord) IsCancelled() bool {
	return strings.Contains(strings.ToUpper(f.Status), "CANCEL")
}

// HasOperated reports whether the leg has departed or arrived
func (f FlightRecord) HasOperated() bool {
	s := strings.ToUpper(f.Status)
	return f.ATD != nil || strings.Contains(s, "ARRIVED") || strings.Contains(s, "DEPARTED") || strings.Contains(s, "LANDED")
}

// ComputedBlockMinutes prefers the recorded block time and falls back to ATA minus ATD
func (f FlightRecord) ComputedBlockMinutes() int {
	if f.BlockMinutes > 0 {
		return f.BlockMinutes
	}
	if f.ATD != nil && f.ATA != nil {
		m := int(f.ATA.Sub(*f.ATD).Minutes())
		if m < 0 {
			m += 1440
		}
		return m
	}
	return 0
}
