// Package verifier supplies the test-runner agent command strings for the
// setup and verify phases. An empty command string means the step is
// skipped.
package verifier

import (
	"fmt"
	"path"

	"github.com/aerickson/test-kitchen/internal/config"
)

// Verifier is the test-runner collaborator. Each command may be "" when the
// corresponding step does not apply.
type Verifier interface {
	SetupCommand() string
	SyncCommand() string
	RunCommand() string
}

// Busser derives the agent commands from configuration: install the runner
// gem during setup, clean and sync suites, then run them.
type Busser struct {
	cfg *config.Config
}

// New creates the default verifier.
func New(cfg *config.Config) *Busser {
	return &Busser{cfg: cfg}
}

// SetupCommand installs the test-runner agent on the instance.
func (b *Busser) SetupCommand() string {
	if b.cfg.Verifier.SuitesPath == "" {
		return ""
	}
	gem := b.tool("gem")
	cmd := fmt.Sprintf("sh -c '%s list busser -i >/dev/null 2>&1 || %s install busser --no-document'", gem, gem)
	return b.cfg.Sudoify(cmd)
}

// SyncCommand refreshes the suites on the instance before a run.
func (b *Busser) SyncCommand() string {
	if b.cfg.Verifier.SuitesPath == "" {
		return ""
	}
	return b.cfg.Sudoify(fmt.Sprintf("%s suite cleanup", b.tool("busser")))
}

// RunCommand executes the synced suites.
func (b *Busser) RunCommand() string {
	if b.cfg.Verifier.SuitesPath == "" {
		return ""
	}
	return b.cfg.Sudoify(fmt.Sprintf("%s test", b.tool("busser")))
}

// tool resolves an executable name against the configured ruby binpath.
func (b *Busser) tool(name string) string {
	if b.cfg.RubyBinpath == "" {
		return name
	}
	return path.Join(b.cfg.RubyBinpath, name)
}
