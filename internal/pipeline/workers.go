package pipeline

import (
	"log/slog"
	"sync"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/mapreduce"
	"github.com/dtnitsch/scale-map/pkg/storage"
)

// Job defines a task for a worker to perform.
type Job struct {
	Index int
	Path  string
}

// Result holds the outcome of a processed job.
type Result struct {
	Index     int
	Path      string
	Counts    models.Histogram
	Error     error
	ErrorType string
	SizeBytes int64
}

// worker is a goroutine that processes jobs from the jobs channel
// and sends results to the results channel.
func worker(id int, logger *slog.Logger, count mapreduce.CountFunc, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Info("Mapper started", "worker_id", id, "file", job.Path)
		result := Result{Index: job.Index, Path: job.Path}

		if stats, err := storage.GetFileStats(job.Path); err == nil {
			result.SizeBytes = stats.SizeBytes
		}

		counts, err := mapreduce.Map(job.Path, count)
		if err != nil {
			logger.Warn("Error reading input file, using empty histogram", "worker_id", id, "file", job.Path, "error", err)
			result.Counts = models.Histogram{}
			result.Error = err
			result.ErrorType = "read_error"
			results <- result
			continue
		}

		result.Counts = counts
		results <- result
		logger.Info("Mapper finished", "worker_id", id, "file", job.Path, "distinct_values", len(counts))
	}
}

// RunWorkers counts every path using at most workerCount goroutines.
// results[i] always belongs to paths[i], whatever order the workers finish in.
// A failed file gets an empty histogram and never stops the other workers.
func RunWorkers(logger *slog.Logger, paths []string, workerCount int, count mapreduce.CountFunc) []Result {
	if len(paths) == 0 {
		return []Result{}
	}
	if workerCount <= 0 {
		workerCount = models.DefaultWorkerCount
	}
	if workerCount > len(paths) {
		workerCount = len(paths)
	}

	logger.Info("Starting map phase", "file_count", len(paths), "workers", workerCount)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(paths))
	results := make(chan Result, len(paths))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(w, logger, count, &wg, jobs, results)
	}

	for i, path := range paths {
		jobs <- Job{Index: i, Path: path}
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("All map workers finished")

	ordered := make([]Result, len(paths))
	for result := range results {
		ordered[result.Index] = result
	}
	return ordered
}
