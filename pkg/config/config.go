// Package config provides configuration loading and management for somsegment.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"somsegment/internal/models"
	"somsegment/pkg/features"
	"somsegment/pkg/segmentation"
	"somsegment/pkg/som"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Self-organizing map parameters
	SOM struct {
		// Rows and Cols are the grid dimensions
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`

		// Sigma is the initial neighborhood radius
		Sigma float64 `yaml:"sigma"`

		// LearningRate is the initial learning rate
		LearningRate float64 `yaml:"learningRate"`

		// Iterations is the number of training steps
		Iterations int `yaml:"iterations"`

		// Seed fixes weight initialization and sample order
		Seed uint64 `yaml:"seed"`

		// Init is "random" or "pca"
		Init string `yaml:"init"`

		// Order is "sequential" or "random"
		Order string `yaml:"order"`
	} `yaml:"som"`

	// Feature extraction parameters
	Features struct {
		// ConstantBands is "error" or "zero"
		ConstantBands string `yaml:"constantBands"`
	} `yaml:"features"`

	// Palette parameters
	Palette struct {
		// Seed fixes the cluster colors; 0 picks new colors every run
		Seed uint64 `yaml:"seed"`
	} `yaml:"palette"`

	// Processing parameters
	Processing struct {
		// Workers is how many images are segmented at once in batch mode
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// PreviewHeight caps the height of display previews
		PreviewHeight int `yaml:"previewHeight"`

		// UMatrixScale is the pixel size of one neuron in the saved U-matrix
		UMatrixScale int `yaml:"umatrixScale"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// JSONLogs switches from console to JSON log lines
		JSONLogs bool `yaml:"jsonLogs"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default SOM parameters
	cfg.SOM.Rows = 1
	cfg.SOM.Cols = 1
	cfg.SOM.Sigma = 1.0
	cfg.SOM.LearningRate = 0.5
	cfg.SOM.Iterations = 1000
	cfg.SOM.Seed = som.DefaultSeed
	cfg.SOM.Init = "random"
	cfg.SOM.Order = "sequential"

	cfg.Features.ConstantBands = "error"

	cfg.Processing.Workers = runtime.NumCPU()

	// Set default output parameters
	cfg.Output.PreviewHeight = 600
	cfg.Output.UMatrixScale = 32
	cfg.Output.Verbose = false

	return cfg
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

// Validate checks every value that does not depend on the image
func (c *Config) Validate() error {
	if _, err := c.SegmentationParams(zerolog.Nop()); err != nil {
		return err
	}
	if c.Processing.Workers < 1 {
		return &models.ConfigError{Param: "processing.workers", Value: c.Processing.Workers, Reason: "must be at least 1"}
	}
	if c.Output.UMatrixScale < 1 {
		return &models.ConfigError{Param: "output.umatrixScale", Value: c.Output.UMatrixScale, Reason: "must be at least 1"}
	}
	return nil
}

// SegmentationParams converts the configuration into pipeline parameters
func (c *Config) SegmentationParams(log zerolog.Logger) (segmentation.Params, error) {
	params := segmentation.DefaultParams(c.SOM.Rows, c.SOM.Cols)
	params.SOM.Sigma = c.SOM.Sigma
	params.SOM.LearningRate = c.SOM.LearningRate
	params.SOM.Iterations = c.SOM.Iterations
	params.SOM.Seed = c.SOM.Seed
	params.PaletteSeed = c.Palette.Seed
	params.Logger = log

	var err error
	if params.SOM.Init, err = som.ParseInit(c.SOM.Init); err != nil {
		return params, err
	}
	if params.SOM.Order, err = som.ParseOrder(c.SOM.Order); err != nil {
		return params, err
	}
	if params.ConstantBands, err = features.ParsePolicy(c.Features.ConstantBands); err != nil {
		return params, err
	}

	return params, params.SOM.Validate()
}
