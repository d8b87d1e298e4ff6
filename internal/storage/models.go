package storage

import "time"

// RunRecord is one archived analysis batch.
type RunRecord struct {
	ID           int64
	StartedAt    time.Time
	WindowStart  time.Time
	WindowEnd    time.Time
	Provider     string
	Basis        string
	TargetDate   *time.Time
	Analyzed     int
	Skipped      int
	SummaryField string
	CreatedAt    time.Time
}
