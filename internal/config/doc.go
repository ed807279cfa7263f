// Package config defines the driver configuration: static options declared
// per instance in YAML, with defaults (sudo on, port 22) applied after
// loading and timeout knobs overridable through environment variables.
package config
