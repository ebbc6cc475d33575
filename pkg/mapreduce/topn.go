package mapreduce

import (
	"fmt"
	"sort"

	"github.com/dtnitsch/scale-map/models"
)

// Rank returns every entry of counts ordered by frequency descending.
// Equal frequencies are ordered by number ascending, so the result does not
// depend on map iteration order.
func Rank(counts models.Histogram) []models.RankedEntry {
	ranked := make([]models.RankedEntry, 0, len(counts))
	for n, c := range counts {
		ranked = append(ranked, models.RankedEntry{Number: n, Frequency: c})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Number < ranked[j].Number
	})

	return ranked
}

// TopN returns the n most frequent entries of counts using Rank's ordering.
func TopN(counts models.Histogram, n int) []models.RankedEntry {
	if n <= 0 {
		return []models.RankedEntry{}
	}

	ranked := Rank(counts)

	// Limit to top N
	limit := n
	if len(ranked) < n {
		limit = len(ranked)
	}

	return ranked[:limit]
}

// FormatEntry renders an entry the way it appears in the report.
func FormatEntry(e models.RankedEntry) string {
	return fmt.Sprintf("Number: %d, Frequency: %d", e.Number, e.Frequency)
}

