// Package config provides configuration loading and management for supervoxelrag.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Neighbour extraction parameters
	Extraction struct {
		// Connectivity selects the neighbourhood: 4 or 8 for 2D label
		// images, 6, 18 or 26 for 3D volumes. 0 picks the face
		// connectivity of the loaded volume.
		Connectivity int `yaml:"connectivity"`

		// Workers specifies how many goroutines scan the volume
		Workers int `yaml:"workers"`
	} `yaml:"extraction"`

	// Region merging parameters
	Merge struct {
		// Enabled turns on intensity-based merging of adjacent regions
		Enabled bool `yaml:"enabled"`

		// Threshold is the largest mean intensity difference, in [0, 1],
		// for two adjacent regions to be merged. 0 merges identical means only.
		Threshold float64 `yaml:"threshold"`

		// IntensityDir holds the intensity slices matching the label volume
		IntensityDir string `yaml:"intensityDir"`
	} `yaml:"merge"`

	// Output parameters
	Output struct {
		// DatabasePath is the SQLite file the graph is written to. Empty
		// disables persistence.
		DatabasePath string `yaml:"databasePath"`

		// SaveSlices writes the (possibly merged) label volume as z slices
		SaveSlices bool `yaml:"saveSlices"`

		// SlicesDir is where slices go when SaveSlices is set
		SlicesDir string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default extraction parameters
	cfg.Extraction.Connectivity = 0
	cfg.Extraction.Workers = runtime.NumCPU() // Use all available cores by default

	// Set default merge parameters
	cfg.Merge.Enabled = false
	cfg.Merge.Threshold = 0.05

	// Set default output parameters
	cfg.Output.SaveSlices = false
	cfg.Output.SlicesDir = "merged_slices"
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks value ranges. Connectivity is checked against the volume
// rank later, once the volume is loaded.
func (c *Config) Validate() error {
	switch c.Extraction.Connectivity {
	case 0, 4, 8, 6, 18, 26:
	default:
		return fmt.Errorf("unsupported connectivity %d", c.Extraction.Connectivity)
	}
	if c.Extraction.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Extraction.Workers)
	}
	if c.Merge.Enabled {
		if c.Merge.Threshold < 0 {
			return fmt.Errorf("merge threshold must be non-negative, got %g", c.Merge.Threshold)
		}
		if c.Merge.IntensityDir == "" {
			return fmt.Errorf("merge requires an intensity directory")
		}
	}
	if c.Output.SaveSlices && c.Output.SlicesDir == "" {
		return fmt.Errorf("saveSlices requires a slices directory")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
