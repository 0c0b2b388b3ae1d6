package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for extraction. Values come from an
// optional YAML file and are overridden by CLI flags.
type Config struct {
	MaxContentLength   int      `yaml:"max_content_length"`
	MinConfidence      float64  `yaml:"min_confidence"`
	Strategies         []string `yaml:"strategies,omitempty"`          // empty enables every registered strategy
	ContainerSelectors []string `yaml:"container_selectors,omitempty"` // tried before the built-in list
	DBPath             string   `yaml:"db_path,omitempty"`
	DebuggerURL        string   `yaml:"debugger_url,omitempty"`
	Format             string   `yaml:"format,omitempty"` // json or yaml
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		MaxContentLength: 10000,
		Format:           "json",
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the ranges of numeric settings and the output format.
func (c Config) Validate() error {
	if c.MaxContentLength < 0 {
		return errors.New("max_content_length must not be negative")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1], got %v", c.MinConfidence)
	}
	switch c.Format {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", c.Format)
	}
	return nil
}
