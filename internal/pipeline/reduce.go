package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/mapreduce"
	"github.com/dtnitsch/scale-map/pkg/storage"
)

// ErrNoValidRecords is returned when the output directory holds no
// decodable partial records.
var ErrNoValidRecords = errors.New("no valid mapper output records found")

// Aggregation is the merged result of every readable partial record.
type Aggregation struct {
	Merged  models.Histogram
	Records []string // decoded, in discovery order
	Corrupt []string // skipped
}

// Aggregate reads every partial record in the store and merges them.
// Records are visited in directory listing order; the merge is a sum so the
// order only shows up in log output. Records that cannot be read or decoded
// are logged and skipped. When every record is skipped the partial
// Aggregation is returned together with ErrNoValidRecords.
func Aggregate(logger *slog.Logger, s *storage.Store) (*Aggregation, error) {
	names, err := s.ListPartials()
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Output directory does not exist", "dir", s.Dir())
		return nil, ErrNoValidRecords
	}
	if err != nil {
		return nil, fmt.Errorf("failed to discover mapper outputs: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoValidRecords
	}

	agg := &Aggregation{}
	intermediate := make([]models.Histogram, 0, len(names))
	for _, name := range names {
		rec, err := s.ReadPartial(name)
		if err != nil {
			logger.Warn("Error processing mapper output, skipping", "file", s.Path(name), "error", err)
			agg.Corrupt = append(agg.Corrupt, name)
			continue
		}
		intermediate = append(intermediate, rec.Counts)
		agg.Records = append(agg.Records, name)
	}

	if len(intermediate) == 0 {
		return agg, ErrNoValidRecords
	}

	agg.Merged = mapreduce.Reduce(intermediate)
	logger.Info("Reduce phase complete", "records", len(agg.Records), "skipped", len(agg.Corrupt), "distinct_values", len(agg.Merged))
	return agg, nil
}
