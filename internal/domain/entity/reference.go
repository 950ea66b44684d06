package entity

import (
	"fmt"
	"time"
)

// Aircraft is reference data for one tail
type Aircraft struct {
	Registration string
	Type         string
	Country      string
	UpdatedAt    time.Time
}

// Airport is reference data used to convert exported local times to UTC
type Airport struct {
	Code             string
	Name             string
	Country          string
	TzName           string
	UTCOffsetMinutes int
	UpdatedAt        time.Time
}

// Location resolves the airport timezone, falling back to a fixed offset
func (a Airport) Location() *time.Location {
	if a.TzName != "" {
		if loc, err := time.LoadLocation(a.TzName); err == nil {
			return loc
		}
	}
	if a.UTCOffsetMinutes != 0 {
		return time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", a.UTCOffsetMinutes/60, abs(a.UTCOffsetMinutes%60)), a.UTCOffsetMinutes*60)
	}
	return time.UTC
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
