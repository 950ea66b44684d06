package entity

import "time"

// SyncStatus is the lifecycle state of one sync run
type SyncStatus string

const (
	SyncRunning   SyncStatus = "RUNNING"
	SyncCompleted SyncStatus = "COMPLETED"
	SyncFailed    SyncStatus = "FAILED"
	SyncSkipped   SyncStatus = "SKIPPED"
)

// SyncResult is returned by sync.run
type SyncResult struct {
	RunID      string
	Kind       EntityKind
	Mode       SyncMode
	Status     SyncStatus
	Inserted   int
	Updated    int
	Skipped    int
	Unchanged  int
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// SyncJob is the audit record of one sync run
type SyncJob struct {
	RunID      string     `bson:"runId"`
	Kind       EntityKind `bson:"kind"`
	Mode       SyncMode   `bson:"mode"`
	Status     SyncStatus `bson:"status"`
	Inserted   int        `bson:"inserted"`
	Updated    int        `bson:"updated"`
	Skipped    int        `bson:"skipped"`
	Unchanged  int        `bson:"unchanged"`
	Attempts   int        `bson:"attempts"`
	Error      string     `bson:"error,omitempty"`
	StartedAt  time.Time  `bson:"startedAt"`
	FinishedAt time.Time  `bson:"finishedAt,omitempty"`
}

// Job converts a result to its audit record
func (r SyncResult) Job() SyncJob {
	return SyncJob{
		RunID:      r.RunID,
		Kind:       r.Kind,
		Mode:       r.Mode,
		Status:     r.Status,
		Inserted:   r.Inserted,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Unchanged:  r.Unchanged,
		Attempts:   r.Attempts,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Apply copies upsert counts into the result
func (r *SyncResult) Apply(c UpsertCounts) {
	r.Inserted += c.Inserted
	r.Updated += c.Updated
	r.Skipped += c.Skipped
	r.Unchanged += c.Unchanged
}
