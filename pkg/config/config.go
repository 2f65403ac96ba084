// Package config provides configuration loading and management for implantprofile.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"implantprofile/pkg/channel"
	"implantprofile/pkg/distance"
	"implantprofile/pkg/profile"
	"implantprofile/pkg/report"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Analysis parameters
	Analysis struct {
		// ConversionFactor is the pixel size in microns
		ConversionFactor float64 `yaml:"conversionFactor"`

		// BinWidth is the coarse bin width in microns
		BinWidth int `yaml:"binWidth"`

		// UpperLimit is the largest distance from the hole considered, in microns
		UpperLimit int `yaml:"upperLimit"`

		// StepSize is the fine bin width in microns
		StepSize int `yaml:"stepSize"`

		// Channels are the identifiers matched against channel image file names
		Channels []string `yaml:"channels"`

		// Normalization holds one offset per channel, kept as text so that
		// it is parsed strictly by ParseOffsets
		Normalization []string `yaml:"normalization"`
	} `yaml:"analysis"`

	// Processing parameters
	Processing struct {
		// NumWorkers is how many image sets are processed concurrently
		NumWorkers int `yaml:"numWorkers"`

		// DistanceMethod selects the distance transform backend
		DistanceMethod string `yaml:"distanceMethod"`

		// Extensions are the accepted channel image extensions
		Extensions []string `yaml:"extensions"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Plots writes an intensity plot next to every processed image set
		Plots bool `yaml:"plots"`

		// Previews writes a preview PNG next to every mask file built
		Previews bool `yaml:"previews"`

		// Dir receives the report; empty means the analysis root
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Analysis.ConversionFactor = 1.0
	cfg.Analysis.BinWidth = 50
	cfg.Analysis.UpperLimit = 500
	cfg.Analysis.StepSize = 1

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.DistanceMethod = distance.MethodEDT
	cfg.Processing.Extensions = append([]string(nil), channel.DefaultExtensions...)

	cfg.Output.Plots = true
	cfg.Output.Previews = true

	cfg.Logging.Level = "info"
	cfg.Logging.Console = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

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

// ProfileParams returns the binning parameters of the analysis section
func (c *Config) ProfileParams() profile.Params {
	return profile.Params{
		ConversionFactor: c.Analysis.ConversionFactor,
		UpperLimit:       c.Analysis.UpperLimit,
		StepSize:         c.Analysis.StepSize,
		BinWidth:         c.Analysis.BinWidth,
	}
}

// Offsets parses the normalization offsets
func (c *Config) Offsets() ([]int, error) {
	return ParseOffsets(c.Analysis.Normalization)
}

// Validate checks the analysis section. Every failure wraps
// profile.ErrParameterMismatch.
func (c *Config) Validate() error {
	if len(c.Analysis.Channels) == 0 {
		return fmt.Errorf("%w: no channels given", profile.ErrParameterMismatch)
	}
	for _, ch := range c.Analysis.Channels {
		if strings.TrimSpace(ch) == "" {
			return fmt.Errorf("%w: empty channel identifier", profile.ErrParameterMismatch)
		}
	}

	if err := report.CheckSheetNames(c.Analysis.Channels); err != nil {
		return fmt.Errorf("%w: %v", profile.ErrParameterMismatch, err)
	}

	offsets, err := c.Offsets()
	if err != nil {
		return err
	}
	if len(offsets) != len(c.Analysis.Channels) {
		return fmt.Errorf("%w: %d channels but %d normalization constants",
			profile.ErrParameterMismatch, len(c.Analysis.Channels), len(offsets))
	}

	return c.ProfileParams().Validate()
}

// SplitList splits comma separated input, dropping blanks and spaces
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(strings.ReplaceAll(s, " ", ""), ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseOffsets parses normalization offsets as small signed integers
// (8-bit range). Anything else, including arithmetic, is rejected.
func ParseOffsets(values []string) ([]int, error) {
	offsets := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid normalization constant %q", profile.ErrParameterMismatch, v)
		}
		offsets = append(offsets, int(n))
	}
	return offsets, nil
}
