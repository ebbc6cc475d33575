package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/mapreduce"
	"github.com/dtnitsch/scale-map/pkg/storage"
)

// Header returns the first line of a report for the given K.
func Header(k int) string {
	return fmt.Sprintf("Top %d elements with the highest frequencies:", k)
}

// Format renders the report artifact: a header line followed by one
// "Number: <n>, Frequency: <c>" line per entry.
func Format(k int, entries []models.RankedEntry) string {
	var sb strings.Builder
	sb.WriteString(Header(k))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString(mapreduce.FormatEntry(e))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Emit streams the report to out and persists the same text as
// final_output.txt in the store. It returns the path of the saved report.
func Emit(out io.Writer, s *storage.Store, k int, entries []models.RankedEntry) (string, error) {
	text := Format(k, entries)

	if _, err := fmt.Fprint(out, "\n"+text); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := s.SaveFile(storage.ReportFileName, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	path := s.Path(storage.ReportFileName)
	fmt.Fprintf(out, "\nFinal output saved to %s\n", path)
	return path, nil
}
