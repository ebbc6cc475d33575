package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/scale-map/internal/pipeline"
	dbpkg "github.com/dtnitsch/scale-map/pkg/db"
	"github.com/dtnitsch/scale-map/pkg/mapreduce"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := pipeline.ConfigFromContext(c)
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.Open(cfg.ResolvedHistoryDB())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// ListAction prints recent runs, newest first.
func ListAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-10s %-20s %-8s %-18s %-7s %-8s %-8s %s\n",
		"Run", "Started", "Stage", "Status", "Files", "Records", "Corrupt", "Output Dir")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-20s %-8s %-18s %-7d %-8d %-8d %s\n",
			shortID(r.RunID),
			humanize.Time(r.StartedAt),
			r.Stage,
			r.Status,
			r.FileCount,
			r.ValidRecordCount,
			r.CorruptRecordCount,
			r.OutputDir,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'scale-map history show <run>' to see details\n")
	return nil
}

// ShowAction prints one run: its inputs, skipped records and ranked report.
func ShowAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	files, err := database.GetRunFiles(runID)
	if err != nil {
		return err
	}
	corrupt, err := database.GetRunCorruptRecords(runID)
	if err != nil {
		return err
	}
	results, err := database.GetRunResults(runID)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Started:     %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	fmt.Fprintf(w, "Duration:    %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Stage:       %s\n", run.Stage)
	fmt.Fprintf(w, "Status:      %s\n", run.Status)
	if run.InputDir != "" {
		fmt.Fprintf(w, "Input:       %s\n", run.InputDir)
	}
	fmt.Fprintf(w, "Output:      %s\n", run.OutputDir)
	if run.Workers > 0 {
		fmt.Fprintf(w, "Workers:     %d\n", run.Workers)
	}
	fmt.Fprintf(w, "Records:     %d valid, %d corrupt\n", run.ValidRecordCount, run.CorruptRecordCount)

	if len(files) > 0 {
		fmt.Fprintf(w, "\nFiles (%d):\n", len(files))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, f := range files {
			fmt.Fprintf(w, "%2d. %s\n", f.Index, f.Path)
			if f.Error != "" {
				fmt.Fprintf(w, "    Error: [%s] %s\n", f.ErrorType, f.Error)
			} else {
				fmt.Fprintf(w, "    Size: %s | Distinct: %d | Total: %d\n",
					humanize.Bytes(uint64(max(f.SizeBytes, 0))), f.DistinctValues, f.TotalValues)
			}
		}
	}

	if len(corrupt) > 0 {
		fmt.Fprintf(w, "\nSkipped records (%d):\n", len(corrupt))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, name := range corrupt {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}

	if len(results) > 0 {
		fmt.Fprintf(w, "\nTop %d:\n", len(results))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, e := range results {
			fmt.Fprintln(w, mapreduce.FormatEntry(e))
		}
	}

	return nil
}
