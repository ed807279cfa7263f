// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework. Collaborator construction goes through factory variables
// so tests can inject fakes.
package handlers

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aerickson/test-kitchen/internal/config"
	"github.com/aerickson/test-kitchen/internal/driver"
	"github.com/aerickson/test-kitchen/internal/platform/hcloud"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	loadConfigFile = config.LoadFile
	loadState      = driver.LoadState

	newDriver = func(cfg *config.Config, log logr.Logger) *driver.Driver {
		opts := []driver.Option{driver.WithLogger(log)}
		if cfg.HCloud.Token != "" {
			opts = append(opts, driver.WithLifecycle(
				hcloud.New(cfg, hcloud.WithLogger(log))))
		}
		return driver.New(cfg, opts...)
	}
)

// setup loads configuration and state and builds the driver stack.
func setup(configPath string) (*driver.Driver, *config.Config, *driver.InstanceState, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	state, err := loadState(driver.StatePath(cfg.InstanceName))
	if err != nil {
		return nil, nil, nil, err
	}

	return newDriver(cfg, newLogger(cfg.LogLevel)), cfg, state, nil
}

// newLogger builds the zap-backed logr handle for one CLI invocation.
func newLogger(level string) logr.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zl, err := zapCfg.Build()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

// requireCreated guards phases that need an existing instance.
func requireCreated(cfg *config.Config, state *driver.InstanceState) error {
	if state.Hostname == "" {
		return fmt.Errorf("instance %s has not been created (run: kitchen create)", cfg.InstanceName)
	}
	return nil
}
