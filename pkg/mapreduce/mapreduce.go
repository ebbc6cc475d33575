package mapreduce

import "github.com/dtnitsch/scale-map/models"

// CountFunc builds the histogram for one input file.
type CountFunc func(path string) (models.Histogram, error)

// Map generates the frequency histogram for a single input file.
func Map(path string, count CountFunc) (models.Histogram, error) {
	return count(path)
}

// Reduce aggregates a slice of histograms into a single histogram.
// The result is the pointwise sum over the union of keys, so the order of
// intermediate does not matter.
func Reduce(intermediate []models.Histogram) models.Histogram {
	finalResults := make(models.Histogram)

	for _, counts := range intermediate {
		for n, count := range counts {
			finalResults[n] += count
		}
	}

	return finalResults
}
