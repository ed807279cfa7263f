package config

import (
	"fmt"
	"strings"
)

// Config holds the driver configuration for one instance. It is read-only
// for the duration of a phase; dynamic per-instance facts live in the
// driver's InstanceState instead.
type Config struct {
	// InstanceName identifies the instance this configuration drives.
	InstanceName string `yaml:"instance_name"`

	// LogLevel controls driver and provisioner verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Sudo prefixes remote provisioner and verifier commands with sudo -E.
	Sudo bool `yaml:"sudo"`

	// Port is the SSH port on the remote instance.
	Port int `yaml:"port"`

	// SSHKey is the path to the private key used for authentication.
	SSHKey string `yaml:"ssh_key"`

	// HTTPProxy and HTTPSProxy are exported into the environment of every
	// remote command. The literal token HOST_MACHINE inside either URL is
	// replaced with the orchestrating host's hostname at command-build time.
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`

	// ProxyHealthChecking probes each configured proxy before use; a proxy
	// that fails its probe is dropped from the remote environment.
	ProxyHealthChecking bool `yaml:"proxy_health_checking"`

	// RubyBinpath and Path are prepended to the remote PATH, in that order.
	RubyBinpath string `yaml:"ruby_binpath"`
	Path        string `yaml:"path"`

	Provisioner ProvisionerConfig `yaml:"provisioner"`
	Verifier    VerifierConfig    `yaml:"verifier"`
	HCloud      HCloudConfig      `yaml:"hcloud"`
}

// ProvisionerConfig configures the shell provisioner.
type ProvisionerConfig struct {
	// Name selects the provisioner implementation. Only "shell" is built in.
	Name string `yaml:"name"`

	// ScriptsPath is a local directory staged into the sandbox and uploaded
	// to HomePath on the instance. Empty means nothing to upload.
	ScriptsPath string `yaml:"scripts_path"`

	// Script is the entry point run on the instance, relative to HomePath.
	Script string `yaml:"script"`

	// HomePath is the provisioner's working directory on the instance.
	HomePath string `yaml:"home_path"`

	// InstallURL, when set, is curl-piped to sh to install the
	// provisioning engine before anything else runs.
	InstallURL string `yaml:"install_url"`
}

// VerifierConfig configures the test-runner agent.
type VerifierConfig struct {
	// SuitesPath is the local directory of test suites synced to the instance.
	SuitesPath string `yaml:"suites_path"`

	// HomePath is the agent's working directory on the instance.
	HomePath string `yaml:"home_path"`
}

// HCloudConfig configures the Hetzner Cloud instance lifecycle. A driver
// without a token cannot create or destroy instances and only operates on
// pre-existing ones.
type HCloudConfig struct {
	Token      string   `yaml:"token"`
	ServerType string   `yaml:"server_type"`
	Image      string   `yaml:"image"`
	Location   string   `yaml:"location"`
	SSHKeys    []string `yaml:"ssh_keys"`
}

// Default returns a configuration with the declared defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their declared defaults.
func (c *Config) ApplyDefaults() {
	c.Sudo = true
	if c.Port == 0 {
		c.Port = 22
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Provisioner.Name == "" {
		c.Provisioner.Name = "shell"
	}
	if c.Provisioner.Script == "" {
		c.Provisioner.Script = "bootstrap.sh"
	}
	if c.Provisioner.HomePath == "" {
		c.Provisioner.HomePath = "/tmp/kitchen"
	}
	if c.Verifier.HomePath == "" {
		c.Verifier.HomePath = "/tmp/verifier"
	}
	if c.HCloud.ServerType == "" {
		c.HCloud.ServerType = "cx22"
	}
	if c.HCloud.Image == "" {
		c.HCloud.Image = "debian-12"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.InstanceName == "" {
		return fmt.Errorf("instance_name is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Provisioner.Name != "shell" {
		return fmt.Errorf("unknown provisioner %q", c.Provisioner.Name)
	}
	return nil
}

// PathDirs returns the extra remote PATH directories in configured order.
func (c *Config) PathDirs() []string {
	var dirs []string
	if c.RubyBinpath != "" {
		dirs = append(dirs, c.RubyBinpath)
	}
	if c.Path != "" {
		dirs = append(dirs, c.Path)
	}
	return dirs
}

// ProxiesConfigured reports whether any proxy is set.
func (c *Config) ProxiesConfigured() bool {
	return c.HTTPProxy != "" || c.HTTPSProxy != ""
}

// Sudoify prefixes a remote command with sudo -E when sudo is enabled.
// Empty commands pass through so absent steps stay absent.
func (c *Config) Sudoify(cmd string) string {
	if cmd == "" || !c.Sudo {
		return cmd
	}
	if strings.HasPrefix(cmd, "sudo ") {
		return cmd
	}
	return "sudo -E " + cmd
}
