package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dtnitsch/scale-map/internal/common"
	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/analytics"
	"github.com/dtnitsch/scale-map/pkg/manifest"
	"github.com/dtnitsch/scale-map/pkg/mapreduce"
	"github.com/dtnitsch/scale-map/pkg/report"
	"github.com/dtnitsch/scale-map/pkg/storage"
	"github.com/google/uuid"
)

// ErrNoInput is returned when the input directory holds no files.
var ErrNoInput = errors.New("no data files found in the input directory")

// Recorder persists a summary of every run. It may be nil.
type Recorder interface {
	RecordRun(rec models.RunRecord) error
}

// Options carries the collaborators a run needs besides its config.
type Options struct {
	Logger   *slog.Logger
	Out      io.Writer // console stream for the ranked report
	Recorder Recorder
	Count    mapreduce.CountFunc // defaults to analytics.CountFile
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}

func (o Options) count() mapreduce.CountFunc {
	if o.Count != nil {
		return o.Count
	}
	return analytics.CountFile
}

func newRunRecord(cfg models.Config, stage models.Stage) *models.RunRecord {
	return &models.RunRecord{
		RunID:     uuid.NewString(),
		Stage:     stage,
		StartedAt: time.Now(),
		InputDir:  cfg.InputDir,
		OutputDir: cfg.ResolvedOutputDir(),
		Workers:   cfg.Workers,
		TopK:      cfg.TopK,
	}
}

// Run executes the map stage followed by the reduce stage.
// It stops early with ErrNoInput or ErrNoValidRecords; no report is written
// in either case.
func Run(cfg models.Config, opts Options) (*models.RunRecord, error) {
	opts = opts.withDefaults()
	rec := newRunRecord(cfg, models.StageAll)

	s, err := mapStage(cfg, opts, rec)
	if err != nil {
		return finish(opts, rec, err)
	}

	err = reduceStage(cfg, opts, s, rec)
	return finish(opts, rec, err)
}

// RunMap executes only the map stage, leaving partial records in the
// output directory for a later RunReduce.
func RunMap(cfg models.Config, opts Options) (*models.RunRecord, error) {
	opts = opts.withDefaults()
	rec := newRunRecord(cfg, models.StageMap)
	_, err := mapStage(cfg, opts, rec)
	return finish(opts, rec, err)
}

// RunReduce aggregates whatever partial records are already in the output
// directory. The directory is not created if it is missing.
func RunReduce(cfg models.Config, opts Options) (*models.RunRecord, error) {
	opts = opts.withDefaults()
	rec := newRunRecord(cfg, models.StageReduce)
	rec.InputDir = ""
	rec.Workers = 0
	err := reduceStage(cfg, opts, storage.OpenStore(cfg.ResolvedOutputDir()), rec)
	return finish(opts, rec, err)
}

func mapStage(cfg models.Config, opts Options, rec *models.RunRecord) (*storage.Store, error) {
	logger := opts.Logger

	paths, err := storage.ListInputFiles(cfg.InputDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Input directory does not exist", "dir", cfg.InputDir)
		return nil, ErrNoInput
	}
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	s, err := storage.NewStore(cfg.ResolvedOutputDir())
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(opts.Out, "--- Starting Map Phase ---")
	results := RunWorkers(logger, paths, cfg.Workers, opts.count())

	// Written only after every worker has returned, one file per index.
	rec.Files = make([]models.FileOutcome, 0, len(results))
	for _, result := range results {
		outcome := models.FileOutcome{
			Index:          result.Index,
			Path:           result.Path,
			SizeBytes:      result.SizeBytes,
			DistinctValues: len(result.Counts),
			TotalValues:    result.Counts.Total(),
			ErrorType:      result.ErrorType,
		}
		if result.Error != nil {
			outcome.Error = result.Error.Error()
		}

		name, data, err := s.WritePartial(storage.PartialRecord{
			Index:  result.Index,
			Source: result.Path,
			Counts: result.Counts,
		})
		if err != nil {
			rec.Files = append(rec.Files, outcome)
			return nil, fmt.Errorf("failed to save mapper output %d: %w", result.Index, err)
		}
		outcome.RecordPath = s.Path(name)
		outcome.RecordHash = common.ContentHash(data)
		rec.Files = append(rec.Files, outcome)

		fmt.Fprintf(opts.Out, "Saved mapper output to %s\n", outcome.RecordPath)
	}

	fmt.Fprintln(opts.Out, "All mappers have completed.")
	return s, nil
}

func reduceStage(cfg models.Config, opts Options, s *storage.Store, rec *models.RunRecord) error {
	logger := opts.Logger

	fmt.Fprintln(opts.Out, "\n--- Starting Reduce Phase ---")
	agg, err := Aggregate(logger, s)
	if agg != nil {
		rec.ValidRecords = len(agg.Records)
		rec.CorruptRecords = agg.Corrupt
	}
	if err != nil {
		return err
	}

	if rec.Stage == models.StageAll {
		if found := len(agg.Records) + len(agg.Corrupt); found > len(rec.Files) {
			logger.Warn("Output directory holds mapper outputs from an earlier run", "found", found, "written", len(rec.Files))
		}
	}

	rec.Top = mapreduce.TopN(agg.Merged, cfg.TopK)
	if _, err := report.Emit(opts.Out, s, cfg.TopK, rec.Top); err != nil {
		return err
	}

	fmt.Fprintln(opts.Out, "Reducer finished.")
	return nil
}

// finish stamps the run, stores it with the recorder and writes the run
// manifest when a report was produced. Recorder and manifest failures are
// logged, never returned.
func finish(opts Options, rec *models.RunRecord, runErr error) (*models.RunRecord, error) {
	rec.FinishedAt = time.Now()

	switch {
	case runErr == nil:
		rec.Status = models.RunStatusCompleted
	case errors.Is(runErr, ErrNoInput):
		rec.Status = models.RunStatusNoInput
	case errors.Is(runErr, ErrNoValidRecords):
		rec.Status = models.RunStatusNoValidRecords
	default:
		rec.Status = models.RunStatusFailed
	}

	if runErr == nil && rec.Stage != models.StageMap {
		path, err := manifest.Generate(*rec, storage.OpenStore(rec.OutputDir))
		if err != nil {
			opts.Logger.Warn("Failed to write run manifest", "error", err)
		} else {
			opts.Logger.Info("Run manifest saved", "file", path)
		}
	}

	if opts.Recorder != nil {
		if err := opts.Recorder.RecordRun(*rec); err != nil {
			opts.Logger.Warn("Failed to record run history", "run_id", rec.RunID, "error", err)
		}
	}

	opts.Logger.Info("Run finished", "run_id", rec.RunID, "stage", rec.Stage, "status", rec.Status,
		"duration", rec.FinishedAt.Sub(rec.StartedAt).String())
	return rec, runErr
}
