package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file on top of the defaults.
// A preset named in the file is applied first so explicit constraints override it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()

	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}
	if head.Preset != "" {
		p, err := ParsePreset(head.Preset)
		if err != nil {
			return nil, err
		}
		cfg.ApplyPreset(p)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
