package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dtnitsch/scale-map/models"
)

// ErrCorruptRecord is returned when a partial record cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt partial record")

// PartialRecord is one mapper's histogram as persisted in the output directory.
// JSON object keys are strings; encoding/json converts Counts keys to and
// from int at this boundary.
type PartialRecord struct {
	Index  int              `json:"index"`
	Source string           `json:"source,omitempty"`
	Counts models.Histogram `json:"counts"`
}

// EncodePartial serializes a record.
func EncodePartial(rec PartialRecord) ([]byte, error) {
	counts := rec.Counts
	if counts == nil {
		counts = models.Histogram{}
	}
	data, err := json.Marshal(PartialRecord{Index: rec.Index, Source: rec.Source, Counts: counts})
	if err != nil {
		return nil, fmt.Errorf("error marshalling partial record %d: %w", rec.Index, err)
	}
	return data, nil
}

// DecodePartial parses a record, rejecting anything that is not a complete
// integer-keyed, non-negative histogram.
func DecodePartial(data []byte) (PartialRecord, error) {
	var raw struct {
		Index  *int             `json:"index"`
		Source string           `json:"source"`
		Counts models.Histogram `json:"counts"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return PartialRecord{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return PartialRecord{}, fmt.Errorf("%w: trailing data after record", ErrCorruptRecord)
	}
	if raw.Index == nil {
		return PartialRecord{}, fmt.Errorf("%w: missing index", ErrCorruptRecord)
	}
	if raw.Counts == nil {
		return PartialRecord{}, fmt.Errorf("%w: missing counts", ErrCorruptRecord)
	}
	for n, c := range raw.Counts {
		if c < 0 {
			return PartialRecord{}, fmt.Errorf("%w: negative count %d for %d", ErrCorruptRecord, c, n)
		}
	}

	return PartialRecord{Index: *raw.Index, Source: raw.Source, Counts: raw.Counts}, nil
}

// WritePartial persists one record under its index-derived name and returns
// that name. Writing the same index again replaces the earlier record.
func (s *Store) WritePartial(rec PartialRecord) (string, []byte, error) {
	data, err := EncodePartial(rec)
	if err != nil {
		return "", nil, err
	}
	name := PartialName(rec.Index)
	if err := s.SaveFile(name, data); err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// ListPartials returns the names of every partial record in the output
// directory, in directory listing order (lexical by name).
func (s *Store) ListPartials() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isPartialName(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isPartialName(name string) bool {
	return strings.HasPrefix(name, PartialPrefix) && strings.HasSuffix(name, PartialExt)
}

// ReadPartial loads and decodes one partial record by file name.
func (s *Store) ReadPartial(name string) (PartialRecord, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return PartialRecord{}, err
	}
	return DecodePartial(data)
}

// RemoveArtifacts deletes partial records and the report from the output
// directory. Other files are left alone. It returns the names removed.
func (s *Store) RemoveArtifacts() ([]string, error) {
	names, err := s.ListPartials()
	if err != nil {
		return nil, err
	}
	if s.HasFile(ReportFileName) {
		names = append(names, ReportFileName)
	}

	removed := make([]string, 0, len(names))
	for _, name := range names {
		if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
