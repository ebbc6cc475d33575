package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dtnitsch/scale-map/models"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
}

func TestPartialName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "mapper_output_0.json"},
		{7, "mapper_output_7.json"},
		{12, "mapper_output_12.json"},
	}
	for _, tt := range tests {
		if got := PartialName(tt.index); got != tt.want {
			t.Errorf("PartialName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestWriteAndReadPartial(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	rec := PartialRecord{Index: 2, Source: "data/c.txt", Counts: models.Histogram{-3: 1, 0: 4, 1 << 40: 2}}
	name, data, err := s.WritePartial(rec)
	if err != nil {
		t.Fatalf("WritePartial() error = %v", err)
	}
	if name != "mapper_output_2.json" {
		t.Errorf("WritePartial() name = %q", name)
	}
	if len(data) == 0 {
		t.Error("WritePartial() returned no data")
	}

	got, err := s.ReadPartial(name)
	if err != nil {
		t.Fatalf("ReadPartial() error = %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("ReadPartial() = %+v, want %+v", got, rec)
	}
}

func TestWritePartial_OverwritesSameIndex(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if _, _, err := s.WritePartial(PartialRecord{Index: 0, Counts: models.Histogram{1: 1}}); err != nil {
		t.Fatalf("first WritePartial() error = %v", err)
	}
	if _, _, err := s.WritePartial(PartialRecord{Index: 0, Counts: models.Histogram{2: 5}}); err != nil {
		t.Fatalf("second WritePartial() error = %v", err)
	}

	names, err := s.ListPartials()
	if err != nil {
		t.Fatalf("ListPartials() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"mapper_output_0.json"}) {
		t.Errorf("ListPartials() = %v, want a single record", names)
	}

	got, err := s.ReadPartial(names[0])
	if err != nil {
		t.Fatalf("ReadPartial() error = %v", err)
	}
	if !reflect.DeepEqual(got.Counts, models.Histogram{2: 5}) {
		t.Errorf("ReadPartial() counts = %v, want latest write", got.Counts)
	}

	// No temp files should be left behind.
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want 1", len(entries))
	}
}

func TestWritePartial_NilCounts(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	name, _, err := s.WritePartial(PartialRecord{Index: 1})
	if err != nil {
		t.Fatalf("WritePartial() error = %v", err)
	}
	got, err := s.ReadPartial(name)
	if err != nil {
		t.Fatalf("ReadPartial() error = %v", err)
	}
	if got.Counts == nil || len(got.Counts) != 0 {
		t.Errorf("ReadPartial() counts = %v, want empty histogram", got.Counts)
	}
}

func TestDecodePartial(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    models.Histogram
		wantErr bool
	}{
		{name: "valid", data: `{"index":0,"counts":{"1":2,"-5":1}}`, want: models.Histogram{1: 2, -5: 1}},
		{name: "empty counts", data: `{"index":3,"counts":{}}`, want: models.Histogram{}},
		{name: "truncated", data: `{"index":0,"counts":{"1":2`, wantErr: true},
		{name: "empty file", data: ``, wantErr: true},
		{name: "not json", data: `hello`, wantErr: true},
		{name: "missing counts", data: `{"index":0}`, wantErr: true},
		{name: "missing index", data: `{"counts":{"1":1}}`, wantErr: true},
		{name: "null counts", data: `{"index":0,"counts":null}`, wantErr: true},
		{name: "string key", data: `{"index":0,"counts":{"abc":1}}`, wantErr: true},
		{name: "float count", data: `{"index":0,"counts":{"1":1.5}}`, wantErr: true},
		{name: "negative count", data: `{"index":0,"counts":{"1":-1}}`, wantErr: true},
		{name: "trailing data", data: `{"index":0,"counts":{}}}`, wantErr: true},
		{name: "two documents", data: `{"index":0,"counts":{}} {"index":1,"counts":{}}`, wantErr: true},
		{name: "trailing newline", data: "{\"index\":0,\"counts\":{\"2\":2}}\n", want: models.Histogram{2: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePartial([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePartial() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptRecord) {
					t.Errorf("DecodePartial() error = %v, want ErrCorruptRecord", err)
				}
				return
			}
			if !reflect.DeepEqual(got.Counts, tt.want) {
				t.Errorf("DecodePartial() counts = %v, want %v", got.Counts, tt.want)
			}
		})
	}
}

func TestListPartials_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for _, name := range []string{"mapper_output_1.json", "mapper_output_0.json", "final_output.txt", "run-summary.yaml", "other.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "mapper_output_9.json"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListPartials()
	if err != nil {
		t.Fatalf("ListPartials() error = %v", err)
	}
	want := []string{"mapper_output_0.json", "mapper_output_1.json"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListPartials() = %v, want %v", got, want)
	}
}

func TestRemoveArtifacts(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := s.WritePartial(PartialRecord{Index: i, Counts: models.Histogram{i: 1}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveFile(ReportFileName, []byte("report")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFile("keep.yaml", []byte("x: 1")); err != nil {
		t.Fatal(err)
	}

	removed, err := s.RemoveArtifacts()
	if err != nil {
		t.Fatalf("RemoveArtifacts() error = %v", err)
	}
	if len(removed) != 4 {
		t.Errorf("RemoveArtifacts() removed %v, want 4 files", removed)
	}
	if !s.HasFile("keep.yaml") {
		t.Error("RemoveArtifacts() removed an unrelated file")
	}
	if s.HasFile(ReportFileName) {
		t.Error("RemoveArtifacts() left the report behind")
	}
}

func TestListInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "subdir", "nested.txt"), []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ListInputFiles(dir)
	if err != nil {
		t.Fatalf("ListInputFiles() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListInputFiles() = %v, want %v", got, want)
	}
}

func TestListInputFiles_MissingDir(t *testing.T) {
	_, err := ListInputFiles(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("ListInputFiles() expected error for missing directory")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ListInputFiles() error = %v, want os.ErrNotExist", err)
	}
}

func TestSaveFile_MissingDirectory(t *testing.T) {
	s := OpenStore(filepath.Join(t.TempDir(), "absent"))
	err := s.SaveFile("x.txt", []byte("data"))
	if err == nil {
		t.Fatal("SaveFile() expected error when directory is missing")
	}
	if !strings.Contains(err.Error(), "x.txt") {
		t.Errorf("SaveFile() error = %v, want file name in message", err)
	}
}

func TestGetFileStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}
	stats, err := GetFileStats(path)
	if err != nil {
		t.Fatalf("GetFileStats() error = %v", err)
	}
	if stats.SizeBytes != 5 {
		t.Errorf("SizeBytes = %d, want 5", stats.SizeBytes)
	}
}
