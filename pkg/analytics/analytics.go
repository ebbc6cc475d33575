package analytics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dtnitsch/scale-map/models"
)

// parseLine returns the integer on a line, or false if the line is not one.
// Surrounding whitespace is ignored; blank lines are not integers.
func parseLine(line string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntFrequency counts every integer line read from r.
// Lines that do not parse as an integer are skipped without error.
func IntFrequency(r io.Reader) (models.Histogram, error) {
	frequencies := make(models.Histogram)
	br := bufio.NewReader(r)

	for {
		// ReadString keeps no line-length limit, unlike bufio.Scanner.
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if n, ok := parseLine(line); ok {
				frequencies[n]++
			}
		}
		if errors.Is(err, io.EOF) {
			return frequencies, nil
		}
		if err != nil {
			return frequencies, err
		}
	}
}

// CountFile builds the frequency histogram for a single input file.
// On any open or read failure it returns an empty histogram along with the
// error, so callers can log it and carry on with other files.
func CountFile(path string) (models.Histogram, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return models.Histogram{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	counts, err := IntFrequency(f)
	if err != nil {
		return models.Histogram{}, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return counts, nil
}
