package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dtnitsch/scale-map/internal/history"
	"github.com/dtnitsch/scale-map/internal/pipeline"
	"github.com/dtnitsch/scale-map/models"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// configFlags are shared by every command that needs to locate the input,
// output or history database.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file (input_dir, project_dir, output_dir, workers, top_k, history_db)",
		},
		&cli.StringFlag{
			Name:    "input-dir",
			Aliases: []string{"i"},
			Usage:   "directory of input files, one integer per line",
			Value:   models.DefaultInputDir,
			EnvVars: []string{"DATA_PATH"},
		},
		&cli.StringFlag{
			Name:    "project-dir",
			Usage:   "project directory; outputs go to <project-dir>/outputs",
			Value:   models.DefaultProjectDir,
			EnvVars: []string{"PROJECT_PATH"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "directory for mapper outputs and the report (overrides --project-dir)",
			EnvVars: []string{"OUTPUT_PATH"},
		},
		&cli.StringFlag{
			Name:  "history-db",
			Usage: "run history database (default <output-dir>/" + models.DefaultHistoryName + ")",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only log errors",
		},
	}
}

func runFlags() []cli.Flag {
	return append(configFlags(),
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "number of parallel mapper workers",
			Value:   models.DefaultWorkerCount,
			EnvVars: []string{"SCALE_MAP_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"k"},
			Usage:   "number of entries in the report",
			Value:   models.DefaultTopK,
			EnvVars: []string{"SCALE_MAP_TOP"},
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "do not record this run in the history database",
		},
	)
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scale-map",
		Usage: "count integers across a directory of files and report the most frequent",
		Flags: runFlags(),
		// Bare invocation runs the whole pipeline.
		Action: pipeline.RunAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "map every input file, then reduce and print the top entries",
				Flags:  runFlags(),
				Action: pipeline.RunAction,
			},
			{
				Name:   "map",
				Usage:  "count each input file and write mapper outputs only",
				Flags:  runFlags(),
				Action: pipeline.MapAction,
			},
			{
				Name:   "reduce",
				Usage:  "merge existing mapper outputs and print the top entries",
				Flags:  runFlags(),
				Action: pipeline.ReduceAction,
			},
			{
				Name:   "clean",
				Usage:  "remove mapper outputs and the report from the output directory",
				Flags:  configFlags(),
				Action: pipeline.CleanAction,
			},
			{
				Name:  "history",
				Usage: "list previous runs",
				Flags: append(configFlags(), &cli.IntFlag{
					Name:  "limit",
					Usage: "maximum number of runs to list (0 for all)",
					Value: 20,
				}),
				Action: history.ListAction,
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "show one run (latest when no ID is given)",
						ArgsUsage: "[run-id]",
						Flags:     configFlags(),
						Action:    history.ShowAction,
					},
				},
			},
		},
	}
}

// loadDotenv reads KEY=VALUE pairs from path into the environment.
// Variables that are already set are never overridden.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	if err := loadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
