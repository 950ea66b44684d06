package entity

import (
	"slices"
	"strings"
	"time"
)

// CrewMember is the master record of one crew member
type CrewMember struct {
	CrewID         string
	Name           string
	ShortName      string
	Base           string
	Gender         string
	Email          string
	Qualifications []string
	Source         Source
	UpdatedAt      time.Time
}

// Provenance returns the source and timestamp of the record
func (c CrewMember) Provenance() Provenance {
	return Provenance{Source: c.Source, UpdatedAt: c.UpdatedAt}
}

// SameContent compares every field except provenance
func (c CrewMember) SameContent(o CrewMember) bool {
	return c.CrewID == o.CrewID &&
		c.Name == o.Name &&
		c.ShortName == o.ShortName &&
		c.Base == o.Base &&
		c.Gender == o.Gender &&
		c.Email == o.Email &&
		slices.Equal(c.Qualifications, o.Qualifications)
}

// SplitQualifications splits a free-form qualification string on commas and slashes
func SplitQualifications(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '/' || r == ';' })
	var quals []string
	for _, f := range fields {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f != "" && !slices.Contains(quals, f) {
			quals = append(quals, f)
		}
	}
	return quals
}
