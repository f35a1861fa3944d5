// Package config models dealdesk.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models dealdesk.yml.
type Config struct {
	Server struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"server"`
	Dispatch struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"dispatch"`
	Activity struct {
		Cap int `yaml:"cap"`
	} `yaml:"activity"`
	Deadlines struct {
		DefaultWindowDays int `yaml:"default_window_days"`
	} `yaml:"deadlines"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Server.Name = "dealdesk"
	cfg.Server.Version = "0.1.0"
	cfg.Dispatch.TimeoutSeconds = 30
	cfg.Activity.Cap = 100
	cfg.Deadlines.DefaultWindowDays = 30
	return &cfg
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dealdesk.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted
// fields fall back to the defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("config.server.name is required")
	}
	if c.Dispatch.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.dispatch.timeout_seconds must be positive")
	}
	if c.Activity.Cap <= 0 {
		return fmt.Errorf("config.activity.cap must be positive")
	}
	if c.Deadlines.DefaultWindowDays <= 0 {
		return fmt.Errorf("config.deadlines.default_window_days must be positive")
	}
	return nil
}
