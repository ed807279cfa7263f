package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	SSHDial           time.Duration // Timeout for establishing one SSH connection
	SSHReady          time.Duration // Overall budget for waiting on sshd readiness
	ServerCreate      time.Duration // Timeout for cloud server creation
	Delete            time.Duration // Timeout for cloud server deletion
	ProxyProbe        time.Duration // Timeout for one proxy reachability probe
	RetryMaxAttempts  int           // Maximum number of readiness-poll attempts
	RetryInitialDelay time.Duration // Initial delay between readiness-poll attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - KITCHEN_TIMEOUT_SSH_DIAL (default: 10s)
//   - KITCHEN_TIMEOUT_SSH_READY (default: 5m)
//   - KITCHEN_TIMEOUT_SERVER_CREATE (default: 10m)
//   - KITCHEN_TIMEOUT_DELETE (default: 5m)
//   - KITCHEN_TIMEOUT_PROXY_PROBE (default: 5s)
//   - KITCHEN_RETRY_MAX_ATTEMPTS (default: 30)
//   - KITCHEN_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		SSHDial:           parseDuration("KITCHEN_TIMEOUT_SSH_DIAL", 10*time.Second),
		SSHReady:          parseDuration("KITCHEN_TIMEOUT_SSH_READY", 5*time.Minute),
		ServerCreate:      parseDuration("KITCHEN_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		Delete:            parseDuration("KITCHEN_TIMEOUT_DELETE", 5*time.Minute),
		ProxyProbe:        parseDuration("KITCHEN_TIMEOUT_PROXY_PROBE", 5*time.Second),
		RetryMaxAttempts:  parseInt("KITCHEN_RETRY_MAX_ATTEMPTS", 30),
		RetryInitialDelay: parseDuration("KITCHEN_RETRY_INITIAL_DELAY", 2*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
