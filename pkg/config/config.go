// Package config provides configuration loading and management for
// peakstack. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the pipeline configuration loaded from YAML.
type Config struct {
	// Peak detection and characterization parameters
	Peaks struct {
		// Width is the expected peak width in pixels
		Width int `yaml:"width"`

		// Subpixel enables center-of-mass refinement of peak positions
		Subpixel bool `yaml:"subpixel"`

		// MedfiltRadius smooths frames before detection; 0 disables it
		MedfiltRadius int `yaml:"medfiltRadius"`

		// Threshold is the minimum sample value for detection
		Threshold float64 `yaml:"threshold"`

		// MaxPeaks bounds the preallocated peak slots per frame
		MaxPeaks int `yaml:"maxPeaks"`

		// TargetNeighborhood is the target matching radius in pixels
		TargetNeighborhood float64 `yaml:"targetNeighborhood"`
	} `yaml:"peaks"`

	// Clustering parameters
	Cluster struct {
		// Clusters is the number of groups to form; 0 disables clustering
		Clusters int `yaml:"clusters"`

		// MaxIterations caps the k-means iterations
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"cluster"`

	// Stack alignment parameters
	Align struct {
		// Enabled registers the stack before characterization
		Enabled bool `yaml:"enabled"`

		// Cascade registers each frame against its predecessor instead of
		// the first frame
		Cascade bool `yaml:"cascade"`

		// Hanning, MedfiltRadius, Sobel and Normalize control the
		// correlation preprocessing
		Hanning       bool `yaml:"hanning"`
		MedfiltRadius int  `yaml:"medfiltRadius"`
		Sobel         bool `yaml:"sobel"`
		Normalize     bool `yaml:"normalize"`
	} `yaml:"align"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Peaks.Width = 10
	cfg.Peaks.Subpixel = false
	cfg.Peaks.MedfiltRadius = 5
	cfg.Peaks.Threshold = 0
	cfg.Peaks.MaxPeaks = 30000
	cfg.Peaks.TargetNeighborhood = 20

	cfg.Cluster.Clusters = 0
	cfg.Cluster.MaxIterations = 100

	cfg.Align.Enabled = false
	cfg.Align.Cascade = false
	cfg.Align.Hanning = true
	cfg.Align.MedfiltRadius = 1
	cfg.Align.Sobel = true
	cfg.Align.Normalize = false

	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}
