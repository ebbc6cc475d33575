package manifest

import "github.com/dtnitsch/scale-map/models"

const FileName = "run-summary.yaml"

// RunManifest represents the structure of the run summary YAML file.
// It gives an overview of a run without having to open every mapper output.
type RunManifest struct {
	RunID          string               `yaml:"run_id"`
	Stage          string               `yaml:"stage"`
	StartedAt      string               `yaml:"started_at"`
	FinishedAt     string               `yaml:"finished_at"`
	Duration       string               `yaml:"duration"`
	InputDir       string               `yaml:"input_dir,omitempty"`
	OutputDir      string               `yaml:"output_dir"`
	Workers        int                  `yaml:"workers,omitempty"`
	TopK           int                  `yaml:"top_k"`
	TotalFiles     int                  `yaml:"total_files"`
	FailedFiles    int                  `yaml:"failed_files"`
	ValidRecords   int                  `yaml:"valid_records"`
	CorruptRecords []string             `yaml:"corrupt_records,omitempty"`
	Top            []models.RankedEntry `yaml:"top"`
	Files          []FileSummary        `yaml:"files,omitempty"`
}

// FileSummary represents summary information for a single input file.
type FileSummary struct {
	Index          int    `yaml:"index"`
	Path           string `yaml:"path"`
	Status         string `yaml:"status"` // "success" or "error"
	ErrorType      string `yaml:"error_type,omitempty"`
	ErrorMessage   string `yaml:"error_message,omitempty"`
	SizeBytes      int64  `yaml:"size_bytes"`
	Size           string `yaml:"size"`
	DistinctValues int    `yaml:"distinct_values"`
	TotalValues    int    `yaml:"total_values"`
	Record         string `yaml:"record,omitempty"`
	RecordSHA256   string `yaml:"record_sha256,omitempty"`
}
