package models

import "time"

// Run status values stored in the history database.
const (
	RunStatusCompleted      = "completed"
	RunStatusNoInput        = "no_input"
	RunStatusNoValidRecords = "no_valid_records"
	RunStatusFailed         = "failed"
)

// Stage names a part of the pipeline a run executed.
type Stage string

const (
	StageAll    Stage = "all"
	StageMap    Stage = "map"
	StageReduce Stage = "reduce"
)

// FileOutcome is what happened to one input file during the map stage.
type FileOutcome struct {
	Index          int
	Path           string
	SizeBytes      int64
	DistinctValues int
	TotalValues    int
	RecordPath     string
	RecordHash     string
	ErrorType      string
	Error          string
}

// RunRecord summarizes a single invocation of the pipeline.
type RunRecord struct {
	RunID          string
	Stage          Stage
	StartedAt      time.Time
	FinishedAt     time.Time
	InputDir       string
	OutputDir      string
	Workers        int
	TopK           int
	Status         string
	Files          []FileOutcome
	ValidRecords   int
	CorruptRecords []string
	Top            []RankedEntry
}
