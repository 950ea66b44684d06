package entity

import "time"

// Batch is the canonical output of a source fetch. Its shape does not depend on the source.
type Batch struct {
	Kind      EntityKind
	Source    Source
	FetchedAt time.Time
	Crew      []CrewMember
	Roster    []RosterActivity
	Flights   []FlightRecord
	ModLog    []ModificationLogEntry
	Aircraft  []Aircraft
	Airports  []Airport
	// Rejected lists records skipped because they could not be mapped
	Rejected []*ParseError
	// Reported holds crew-hour totals carried by tabular exports
	Reported []ComplianceSnapshot
}

// Len is the number of accepted records
func (b *Batch) Len() int {
	return len(b.Crew) + len(b.Roster) + len(b.Flights) + len(b.ModLog) +
		len(b.Aircraft) + len(b.Airports) + len(b.Reported)
}

// Reject records a parse failure for a skipped record
func (b *Batch) Reject(err *ParseError) {
	if err.Kind == "" {
		err.Kind = b.Kind
	}
	b.Rejected = append(b.Rejected, err)
}
