package provisioner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/aerickson/test-kitchen/internal/config"
)

// Shell provisions an instance with plain shell scripts: an optional
// curl-piped installer, a staged scripts directory and an entry script run
// from the provisioner home path.
type Shell struct {
	cfg      *config.Config
	instance string
	logLevel string

	sandboxPath string
}

// NewShell creates a shell provisioner for one instance.
func NewShell(cfg *config.Config, instance, logLevel string) *Shell {
	return &Shell{cfg: cfg, instance: instance, logLevel: logLevel}
}

// InstallCommand installs the provisioning engine, or nothing when no
// install URL is configured.
func (s *Shell) InstallCommand() string {
	if s.cfg.Provisioner.InstallURL == "" {
		return ""
	}
	cmd := fmt.Sprintf("sh -c 'curl -sSL %s | sh'", s.cfg.Provisioner.InstallURL)
	return s.cfg.Sudoify(cmd)
}

// InitCommand resets the provisioner home path on the instance.
func (s *Shell) InitCommand() string {
	home := s.cfg.Provisioner.HomePath
	cmd := fmt.Sprintf("sh -c 'rm -rf %[1]s && mkdir -p %[1]s'", home)
	return s.cfg.Sudoify(cmd)
}

// PrepareCommand marks the uploaded entry script executable. Skipped when
// no scripts are staged.
func (s *Shell) PrepareCommand() string {
	if s.cfg.Provisioner.ScriptsPath == "" {
		return ""
	}
	cmd := fmt.Sprintf("chmod +x %s", s.scriptPath())
	return s.cfg.Sudoify(cmd)
}

// RunCommand executes the entry script with the derived log level exported.
// Skipped when no scripts are staged.
func (s *Shell) RunCommand() string {
	if s.cfg.Provisioner.ScriptsPath == "" {
		return ""
	}
	cmd := fmt.Sprintf("env KITCHEN_LOG_LEVEL=%s sh %s", s.logLevel, s.scriptPath())
	return s.cfg.Sudoify(cmd)
}

// HomePath is the upload target for the sandbox.
func (s *Shell) HomePath() string {
	return s.cfg.Provisioner.HomePath
}

// CreateSandbox stages the configured scripts directory into a fresh local
// temp dir and returns its path. Returns "" when nothing is configured to
// upload.
func (s *Shell) CreateSandbox() (string, error) {
	if s.cfg.Provisioner.ScriptsPath == "" {
		return "", nil
	}

	sandbox, err := os.MkdirTemp("", "kitchen-sandbox-")
	if err != nil {
		return "", fmt.Errorf("failed to create sandbox dir: %w", err)
	}
	s.sandboxPath = sandbox

	if err := copyTree(s.cfg.Provisioner.ScriptsPath, sandbox); err != nil {
		return "", fmt.Errorf("failed to stage scripts into sandbox: %w", err)
	}
	return sandbox, nil
}

// CleanupSandbox removes the sandbox. Safe to call when no sandbox was
// created and safe to call more than once.
func (s *Shell) CleanupSandbox() error {
	if s.sandboxPath == "" {
		return nil
	}
	err := os.RemoveAll(s.sandboxPath)
	s.sandboxPath = ""
	return err
}

func (s *Shell) scriptPath() string {
	return path.Join(s.cfg.Provisioner.HomePath, s.cfg.Provisioner.Script)
}

// copyTree copies the contents of src into dst, preserving layout.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	// #nosec G304
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}
