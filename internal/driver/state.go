package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// InstanceState carries the dynamic facts discovered when an instance is
// created. It is merged over the static configuration when building
// connection arguments, winning on any overlapping field.
type InstanceState struct {
	Hostname     string `yaml:"hostname,omitempty"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	ForwardAgent bool   `yaml:"forward_agent,omitempty"`

	// ServerID is recorded by cloud lifecycles so destroy can find the
	// instance again in a later process.
	ServerID int64 `yaml:"server_id,omitempty"`
}

// StatePath returns where the state of a named instance is persisted
// between CLI invocations.
func StatePath(instance string) string {
	return filepath.Join(".kitchen", instance+".yaml")
}

// LoadState reads persisted instance state. A missing file yields an empty
// state, not an error: phases on a never-created instance fail later with
// a clearer message.
func LoadState(path string) (*InstanceState, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &InstanceState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state InstanceState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}
	return &state, nil
}

// Save persists the state, creating the parent directory as needed.
func (s *InstanceState) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
