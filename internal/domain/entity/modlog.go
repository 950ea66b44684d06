package entity

import (
	"strings"
	"time"
)

// ModificationType classifies a schedule modification log entry
type ModificationType string

const (
	ModCreated  ModificationType = "CREATED"
	ModModified ModificationType = "MODIFIED"
	ModDeleted  ModificationType = "DELETED"
	ModOther    ModificationType = "OTHER"
)

// ClassifyModification maps a raw status description to a modification type
func ClassifyModification(status string) ModificationType {
	s := strings.ToUpper(status)
	switch {
	case strings.Contains(s, "DELET"), strings.Contains(s, "CANCEL"):
		return ModDeleted
	case strings.Contains(s, "CREAT"), strings.Contains(s, "ADD"), strings.Contains(s, "NEW"):
		return ModCreated
	case strings.Contains(s, "MODIF"), strings.Contains(s, "CHANG"), strings.Contains(s, "UPDAT"):
		return ModModified
	default:
		return ModOther
	}
}

// ModificationLogEntry is one free-text change record of a flight leg
type ModificationLogEntry struct {
	FlightKey
	Arrival          string
	Status           string
	ModificationType ModificationType
	FieldChanged     string
	OldValue         string
	NewValue         string
	ModifiedBy       string
	ModifiedAt       time.Time
	FetchedAt        time.Time
}

// Text concatenates every free-text field used by reason classification
func (m ModificationLogEntry) Text() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{m.Status, m.FieldChanged, m.OldValue, m.NewValue} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Ref is a short human-readable reference used on swap events
func (m ModificationLogEntry) Ref() string {
	ref := m.FlightKey.String()
	if !m.ModifiedAt.IsZero() {
		ref += "@" + m.ModifiedAt.UTC().Format(time.RFC3339)
	}
	return ref
}
