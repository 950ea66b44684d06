package entity

import "time"

// Provenance is the origin of a stored row
type Provenance struct {
	Source    Source
	UpdatedAt time.Time
}

// Supersedes decides whether an incoming record may replace the stored one.
// Fallback data never replaces live data unless it is strictly newer; otherwise
// the newer (or equally recent) record wins.
func Supersedes(incoming, existing Provenance) bool {
	if incoming.Source == SourceCSV && existing.Source == SourceAIMS {
		return incoming.UpdatedAt.After(existing.UpdatedAt)
	}
	return !incoming.UpdatedAt.Before(existing.UpdatedAt)
}

// UpsertCounts is the outcome of one reconciliation write
type UpsertCounts struct {
	Inserted int
	Updated  int
	// Skipped counts rejected rows: parse failures and rows superseded by fresher data
	Skipped int
	// Unchanged counts rows identical to what is already stored
	Unchanged int
}

// Add accumulates another set of counts
func (c *UpsertCounts) Add(o UpsertCounts) {
	c.Inserted += o.Inserted
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Unchanged += o.Unchanged
}

// Written is the number of rows inserted or replaced
func (c UpsertCounts) Written() int {
	return c.Inserted + c.Updated
}
