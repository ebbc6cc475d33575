package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/scale-map/models"
)

// Run represents a row of the runs table
type Run struct {
	RunID              string
	Stage              string
	Status             string
	StartedAt          time.Time
	FinishedAt         time.Time
	InputDir           string
	OutputDir          string
	Workers            int
	TopK               int
	FileCount          int
	FailedFileCount    int
	ValidRecordCount   int
	CorruptRecordCount int
}

// NewNullString returns a NullString that is NULL for the empty string.
func NewNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RecordRun stores a finished run with its file outcomes, skipped records
// and ranked results in a single transaction.
func (db *DB) RecordRun(rec models.RunRecord) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Rollback error less important than the original error
		}
	}()

	failed := 0
	for _, f := range rec.Files {
		if f.Error != "" {
			failed++
		}
	}

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, stage, status, started_at, finished_at, input_dir, output_dir,
		                  workers, top_k, file_count, failed_file_count, valid_record_count, corrupt_record_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, string(rec.Stage), rec.Status, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
		NewNullString(rec.InputDir), rec.OutputDir, rec.Workers, rec.TopK,
		len(rec.Files), failed, rec.ValidRecords, len(rec.CorruptRecords))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, f := range rec.Files {
		_, err = tx.Exec(`
			INSERT INTO run_files (run_id, file_index, path, size_bytes, distinct_values, total_values,
			                       record_path, record_hash, error_type, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.RunID, f.Index, f.Path, f.SizeBytes, f.DistinctValues, f.TotalValues,
			NewNullString(f.RecordPath), NewNullString(f.RecordHash), NewNullString(f.ErrorType), NewNullString(f.Error))
		if err != nil {
			return fmt.Errorf("failed to insert run file %d: %w", f.Index, err)
		}
	}

	for _, name := range rec.CorruptRecords {
		_, err = tx.Exec(`INSERT INTO run_corrupt_records (run_id, record_name) VALUES (?, ?)`, rec.RunID, name)
		if err != nil {
			return fmt.Errorf("failed to insert corrupt record: %w", err)
		}
	}

	for i, e := range rec.Top {
		_, err = tx.Exec(`
			INSERT INTO run_results (run_id, rank, number, frequency)
			VALUES (?, ?, ?, ?)
		`, rec.RunID, i+1, e.Number, e.Frequency)
		if err != nil {
			return fmt.Errorf("failed to insert run result: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, stage, status, started_at, finished_at, input_dir, output_dir,
	workers, top_k, file_count, failed_file_count, valid_record_count, corrupt_record_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var inputDir sql.NullString
	err := row.Scan(&r.RunID, &r.Stage, &r.Status, &r.StartedAt, &r.FinishedAt, &inputDir, &r.OutputDir,
		&r.Workers, &r.TopK, &r.FileCount, &r.FailedFileCount, &r.ValidRecordCount, &r.CorruptRecordCount)
	if inputDir.Valid {
		r.InputDir = inputDir.String
	}
	return r, err
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run by its full ID
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ResolveRunID expands a unique run ID prefix into the full ID.
func (db *DB) ResolveRunID(prefix string) (string, error) {
	rows, err := db.Query(`SELECT run_id FROM runs WHERE substr(run_id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve run ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to resolve run ID: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s not found", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run ID prefix %s is ambiguous", prefix)
	}
}

// GetRunFiles retrieves the per-file outcomes of a run in input order
func (db *DB) GetRunFiles(runID string) ([]models.FileOutcome, error) {
	rows, err := db.Query(`
		SELECT file_index, path, size_bytes, distinct_values, total_values,
		       record_path, record_hash, error_type, error_message
		FROM run_files
		WHERE run_id = ?
		ORDER BY file_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run files: %w", err)
	}
	defer rows.Close()

	var files []models.FileOutcome
	for rows.Next() {
		var f models.FileOutcome
		var recordPath, recordHash, errorType, errorMessage sql.NullString
		if err := rows.Scan(&f.Index, &f.Path, &f.SizeBytes, &f.DistinctValues, &f.TotalValues,
			&recordPath, &recordHash, &errorType, &errorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		f.RecordPath = recordPath.String
		f.RecordHash = recordHash.String
		f.ErrorType = errorType.String
		f.Error = errorMessage.String
		files = append(files, f)
	}

	return files, rows.Err()
}

// GetRunCorruptRecords retrieves the record names a run skipped
func (db *DB) GetRunCorruptRecords(runID string) ([]string, error) {
	rows, err := db.Query(`SELECT record_name FROM run_corrupt_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get corrupt records: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan corrupt record: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// GetRunResults retrieves the ranked report of a run
func (db *DB) GetRunResults(runID string) ([]models.RankedEntry, error) {
	rows, err := db.Query(`
		SELECT number, frequency
		FROM run_results
		WHERE run_id = ?
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer rows.Close()

	var results []models.RankedEntry
	for rows.Next() {
		var e models.RankedEntry
		if err := rows.Scan(&e.Number, &e.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		results = append(results, e)
	}

	return results, rows.Err()
}
