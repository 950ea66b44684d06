package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInt converts string to int, zero when malformed
func ParseInt(value string) int {
	parsedValue, _ := strconv.Atoi(strings.TrimSpace(value))
	return parsedValue
}

// ExpandYear interprets two-digit years as 2000+YY
func ExpandYear(year int) int {
	if year >= 0 && year < 100 {
		return 2000 + year
	}
	return year
}

// ParseClock parses HH:MM, HHMM or HH:MM:SS into hour and minute
func ParseClock(value string) (int, int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, 0, fmt.Errorf("empty time")
	}

	var hh, mm string
	switch parts := strings.Split(v, ":"); {
	case len(parts) >= 2:
		hh, mm = parts[0], parts[1]
	case len(v) == 4:
		hh, mm = v[:2], v[2:]
	default:
		return 0, 0, fmt.Errorf("invalid time %q", value)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return h, m, nil
}

// ComposeDate builds a calendar date from separate day, month and year components
func ComposeDate(day, month, year string) (time.Time, error) {
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q", day)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", month)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q", year)
	}
	y = ExpandYear(y)

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %s-%s-%s", year, month, day)
	}
	return t, nil
}

// ComposeInstant combines a date with an HH:MM clock in loc and returns it in UTC
func ComposeInstant(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc).UTC(), nil
}

// OptionalInstant is like ComposeInstant but returns nil for an empty clock
func OptionalInstant(date time.Time, clock string, loc *time.Location) (*time.Time, error) {
	if IsBlank(clock) {
		return nil, nil
	}
	t, err := ComposeInstant(date, clock, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"02Jan2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseFlexibleDate parses the date formats seen in operational exports.
// Two-digit years in DD/MM/YY are read as 2000+YY.
func ParseFlexibleDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	for _, sep := range []string{"/", "-", "."} {
		if parts := strings.Split(v, sep); len(parts) == 3 && len(parts[2]) == 2 {
			return ComposeDate(parts[0], parts[1], parts[2])
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// IsBlank reports whether an export cell carries no value
func IsBlank(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "-", "--", "N/A", "NA", "NULL", "NONE":
		return true
	}
	return false
}

// ParseHours parses "HH:MM" or decimal hours. Blank cells are zero.
func ParseHours(value string) (float64, error) {
	v := strings.TrimSpace(value)
	if IsBlank(v) {
		return 0, nil
	}
	if h, m, ok := strings.Cut(v, ":"); ok {
		hours, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil || hours < 0 {
			return 0, fmt.Errorf("invalid hours %q", value)
		}
		mins, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil || mins < 0 || mins > 59 {
			return 0, fmt.Errorf("invalid minutes %q", value)
		}
		return float64(hours) + float64(mins)/60, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid hours %q", value)
	}
	return f, nil
}

// ParseDurationMinutes parses an "HH:MM" block time into minutes. Blank cells are zero.
func ParseDurationMinutes(value string) (int, error) {
	h, err := ParseHours(value)
	if err != nil {
		return 0, err
	}
	return int(h*60 + 0.5), nil
}

// IsIATACode reports whether value is a three-letter airport code
func IsIATACode(value string) bool {
	if len(value) != 3 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
