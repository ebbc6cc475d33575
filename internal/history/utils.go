package history

import (
	"fmt"

	dbpkg "github.com/dtnitsch/scale-map/pkg/db"
	"github.com/urfave/cli/v2"
)

// shortID trims a UUID to its first block for table output.
func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

// GetRunIDOrLatest returns the run ID from args (a full ID or unique
// prefix), or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() == 0 {
		runs, err := database.ListRuns(1)
		if err != nil {
			return "", fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return "", fmt.Errorf("no runs found. Run 'scale-map run' first")
		}
		return runs[0].RunID, nil
	}

	return database.ResolveRunID(c.Args().First())
}
