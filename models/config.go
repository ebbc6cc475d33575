// Package models defines data structures shared by the map and reduce stages.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultInputDir    = "data_path"
	DefaultProjectDir  = "project_path"
	DefaultOutputSub   = "outputs"
	DefaultWorkerCount = 4
	DefaultTopK        = 6
	DefaultHistoryName = "scale-map.db"
)

// Config holds runtime configuration for a pipeline run.
// It is built once by the CLI layer and passed down; nothing below the
// CLI reads the environment.
type Config struct {
	InputDir   string `yaml:"input_dir"`
	ProjectDir string `yaml:"project_dir"`
	OutputDir  string `yaml:"output_dir,omitempty"`
	Workers    int    `yaml:"workers"`
	TopK       int    `yaml:"top_k"`
	HistoryDB  string `yaml:"history_db,omitempty"`
}

// DefaultConfig returns the configuration used when nothing else is supplied.
func DefaultConfig() Config {
	return Config{
		InputDir:   DefaultInputDir,
		ProjectDir: DefaultProjectDir,
		Workers:    DefaultWorkerCount,
		TopK:       DefaultTopK,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Fields missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvedOutputDir returns OutputDir, or <ProjectDir>/outputs when unset.
func (c Config) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.ProjectDir, DefaultOutputSub)
}

// ResolvedHistoryDB returns HistoryDB, or scale-map.db inside the output dir.
func (c Config) ResolvedHistoryDB() string {
	if c.HistoryDB != "" {
		return c.HistoryDB
	}
	return filepath.Join(c.ResolvedOutputDir(), DefaultHistoryName)
}

func (c Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory must not be empty")
	}
	if c.OutputDir == "" && c.ProjectDir == "" {
		return errors.New("either output_dir or project_dir must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	return nil
}
