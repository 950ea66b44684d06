package repository

import (
	"crewsync-service/internal/domain/entity"
)

// upsertChunkSize bounds the rows written per transaction so an abandoned
// sync keeps every chunk committed before it was cancelled
const upsertChunkSize = 200

type writeAction int

const (
	actionInsert writeAction = iota
	actionReplace
	actionUnchanged
	actionSkip
)

// decideWrite applies the provenance rule to one incoming record. Replacement is
// always of the whole row.
func decideWrite(found bool, incoming, existing entity.Provenance, sameContent bool) writeAction {
	if !found {
		return actionInsert
	}
	if sameContent && incoming.Source == existing.Source {
		return actionUnchanged
	}
	if !entity.Supersedes(incoming, existing) {
		return actionSkip
	}
	if sameContent && incoming.Source == entity.SourceCSV {
		return actionUnchanged
	}
	return actionReplace
}

func (a writeAction) count(c *entity.UpsertCounts) {
	switch a {
	case actionInsert:
		c.Inserted++
	case actionReplace:
		c.Updated++
	case actionUnchanged:
		c.Unchanged++
	case actionSkip:
		c.Skipped++
	}
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
