package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/db"
	"github.com/dtnitsch/scale-map/pkg/storage"
	"github.com/urfave/cli/v2"
)

// ConfigFromContext builds the run configuration from, in increasing
// precedence: defaults, the --config YAML file, environment variables and
// command-line flags. urfave/cli reports env-sourced flags as set.
func ConfigFromContext(c *cli.Context) (models.Config, error) {
	cfg := models.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("input-dir") {
		cfg.InputDir = c.String("input-dir")
	}
	if c.IsSet("project-dir") {
		cfg.ProjectDir = c.String("project-dir")
		// A project dir given on the command line wins over an output_dir
		// from the config file.
		if !c.IsSet("output-dir") {
			cfg.OutputDir = ""
		}
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("top") {
		cfg.TopK = c.Int("top")
	}
	if c.IsSet("history-db") {
		cfg.HistoryDB = c.String("history-db")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewLogger returns the JSON stderr logger used by every command.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// openHistory opens the run history database unless --no-history is set.
// A database that cannot be opened only costs the history entry.
func openHistory(c *cli.Context, cfg models.Config, logger *slog.Logger) *db.DB {
	if c.Bool("no-history") {
		return nil
	}
	database, err := db.Open(cfg.ResolvedHistoryDB())
	if err != nil {
		logger.Warn("Run history disabled", "path", cfg.ResolvedHistoryDB(), "error", err)
		return nil
	}
	return database
}

type stageFunc func(cfg models.Config, opts Options) (*models.RunRecord, error)

func runStage(c *cli.Context, stage stageFunc) error {
	logger := NewLogger(c)

	cfg, err := ConfigFromContext(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logger.Info("Configuration loaded", "input_dir", cfg.InputDir, "output_dir", cfg.ResolvedOutputDir(),
		"workers", cfg.Workers, "top_k", cfg.TopK)

	opts := Options{Logger: logger, Out: c.App.Writer}
	if database := openHistory(c, cfg, logger); database != nil {
		defer database.Close()
		opts.Recorder = database
	}

	rec, err := stage(cfg, opts)
	switch {
	case errors.Is(err, ErrNoInput):
		fmt.Fprintf(c.App.ErrWriter, "Error: No data files found in %s\n", cfg.InputDir)
		return nil
	case errors.Is(err, ErrNoValidRecords):
		fmt.Fprintf(c.App.ErrWriter, "Error: No mapper output files found in %s. Run 'map' first.\n", cfg.ResolvedOutputDir())
		return nil
	case err != nil:
		return cli.Exit(fmt.Sprintf("run failed: %v", err), 1)
	}

	logger.Info("Run complete", "run_id", rec.RunID, "files", len(rec.Files), "records", rec.ValidRecords)
	return nil
}

// RunAction runs the full map and reduce pipeline.
func RunAction(c *cli.Context) error {
	return runStage(c, Run)
}

// MapAction runs only the map stage.
func MapAction(c *cli.Context) error {
	return runStage(c, RunMap)
}

// ReduceAction aggregates existing mapper outputs.
func ReduceAction(c *cli.Context) error {
	return runStage(c, RunReduce)
}

// CleanAction removes mapper outputs and the report from the output dir.
func CleanAction(c *cli.Context) error {
	cfg, err := ConfigFromContext(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	removed, err := storage.OpenStore(cfg.ResolvedOutputDir()).RemoveArtifacts()
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(c.App.Writer, "Nothing to clean in %s\n", cfg.ResolvedOutputDir())
		return nil
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("clean failed: %v", err), 1)
	}

	for _, name := range removed {
		fmt.Fprintf(c.App.Writer, "Removed %s\n", name)
	}
	fmt.Fprintf(c.App.Writer, "Removed %d file(s) from %s\n", len(removed), cfg.ResolvedOutputDir())
	return nil
}
