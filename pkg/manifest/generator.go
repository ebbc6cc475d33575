package manifest

import (
	"fmt"
	"time"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/storage"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Build converts a run record into its manifest form.
func Build(rec models.RunRecord) RunManifest {
	m := RunManifest{
		RunID:          rec.RunID,
		Stage:          string(rec.Stage),
		StartedAt:      rec.StartedAt.Format(time.RFC3339),
		FinishedAt:     rec.FinishedAt.Format(time.RFC3339),
		Duration:       rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String(),
		InputDir:       rec.InputDir,
		OutputDir:      rec.OutputDir,
		Workers:        rec.Workers,
		TopK:           rec.TopK,
		TotalFiles:     len(rec.Files),
		ValidRecords:   rec.ValidRecords,
		CorruptRecords: rec.CorruptRecords,
		Top:            rec.Top,
	}

	for _, f := range rec.Files {
		summary := FileSummary{
			Index:          f.Index,
			Path:           f.Path,
			SizeBytes:      f.SizeBytes,
			Size:           humanize.Bytes(uint64(max(f.SizeBytes, 0))),
			DistinctValues: f.DistinctValues,
			TotalValues:    f.TotalValues,
			Record:         f.RecordPath,
			RecordSHA256:   f.RecordHash,
		}
		if f.Error != "" {
			m.FailedFiles++
			summary.Status = "error"
			summary.ErrorType = f.ErrorType
			summary.ErrorMessage = f.Error
		} else {
			summary.Status = "success"
		}
		m.Files = append(m.Files, summary)
	}

	return m
}

// Generate writes run-summary.yaml into the store.
// Returns the path to the generated manifest file and any error.
func Generate(rec models.RunRecord, s *storage.Store) (string, error) {
	data, err := yaml.Marshal(Build(rec))
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(FileName, data); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}

	return s.Path(FileName), nil
}
