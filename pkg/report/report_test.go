package report

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/dtnitsch/scale-map/models"
	"github.com/dtnitsch/scale-map/pkg/storage"
)

func TestFormat(t *testing.T) {
	entries := []models.RankedEntry{
		{Number: 1, Frequency: 10},
		{Number: 2, Frequency: 10},
		{Number: -3, Frequency: 9},
	}
	got := Format(6, entries)
	want := "Top 6 elements with the highest frequencies:\n" +
		"Number: 1, Frequency: 10\n" +
		"Number: 2, Frequency: 10\n" +
		"Number: -3, Frequency: 9\n"
	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestEmit(t *testing.T) {
	s, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	entries := []models.RankedEntry{{Number: 5, Frequency: 3}}

	var out bytes.Buffer
	path, err := Emit(&out, s, 6, entries)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not saved: %v", err)
	}
	want := Format(6, entries)
	if string(saved) != want {
		t.Errorf("saved report = %q, want %q", saved, want)
	}
	if !strings.Contains(out.String(), want) {
		t.Errorf("console output %q does not contain report %q", out.String(), want)
	}
	if !strings.Contains(out.String(), "Final output saved to "+path) {
		t.Errorf("console output %q missing saved path", out.String())
	}
}
