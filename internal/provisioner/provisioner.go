// Package provisioner supplies the four lifecycle command strings and the
// local sandbox the driver uploads during converge. An empty command string
// means the step is skipped.
package provisioner

import (
	"fmt"

	"github.com/aerickson/test-kitchen/internal/config"
)

// Provisioner is the collaborator driving what happens on the instance
// during converge. Command methods may return "" for steps that do not
// apply; CreateSandbox may return "" when there is nothing to upload.
type Provisioner interface {
	InstallCommand() string
	InitCommand() string
	PrepareCommand() string
	RunCommand() string
	HomePath() string
	CreateSandbox() (string, error)
	CleanupSandbox() error
}

// New constructs the provisioner named in the configuration. The log level
// is derived from the driver configuration and handed to the remote run.
func New(cfg *config.Config, instance, logLevel string) (Provisioner, error) {
	switch cfg.Provisioner.Name {
	case "shell":
		return NewShell(cfg, instance, logLevel), nil
	default:
		return nil, fmt.Errorf("unknown provisioner %q", cfg.Provisioner.Name)
	}
}

// DeriveLogLevel maps the driver log level onto the level exported to the
// provisioning run on the instance.
func DeriveLogLevel(cfg *config.Config) string {
	if cfg.LogLevel == "" {
		return "info"
	}
	return cfg.LogLevel
}
