package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ApplyDefaults()

	// Sudo defaults to true; only an explicit `sudo: false` disables it.
	if explicitlyFalse(rawConfig, "sudo") {
		cfg.Sudo = false
	}
	if cfg.HCloud.Token == "" {
		cfg.HCloud.Token = os.Getenv("HCLOUD_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// explicitlyFalse reports whether a top-level boolean key was set to false
// in the raw document, as opposed to merely being absent.
func explicitlyFalse(rawConfig map[string]interface{}, key string) bool {
	val, ok := rawConfig[key]
	if !ok {
		return false
	}
	b, ok := val.(bool)
	return ok && !b
}
