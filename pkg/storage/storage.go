package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	PartialPrefix  = "mapper_output_"
	PartialExt     = ".json"
	ReportFileName = "final_output.txt"
)

// Store owns the output directory: partial records, the report and any
// other run artifacts live directly inside it.
type Store struct {
	dir string
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// NewStore creates a Store rooted at dir.
// The directory is created if it doesn't exist, so later writes never
// need to check for it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// OpenStore returns a Store for an existing directory without creating it.
func OpenStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path joins name onto the output directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// PartialName returns the file name of the partial record at index.
// Example: mapper_output_3.json
func PartialName(index int) string {
	return fmt.Sprintf("%s%d%s", PartialPrefix, index, PartialExt)
}

// SaveFile writes content to name inside the output directory.
// The data is written to a temporary file first and renamed into place, so
// readers see either the previous file or the complete new one.
func (s *Store) SaveFile(name string, content []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("error syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error closing %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error setting mode on %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error saving file %s: %w", name, err)
	}

	return nil
}

func (s *Store) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(s.Path(name)))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Store) HasFile(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// ListInputFiles returns the regular files directly inside dir, sorted by
// name. Subdirectories are skipped and not descended into. Symlinks are
// followed, so a link to a file counts as a file.
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}
