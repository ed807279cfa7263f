package handlers

import (
	"context"
	"os"

	"github.com/aerickson/test-kitchen/internal/driver"
)

// Create provisions the instance, persists the discovered state and waits
// for sshd to accept connections.
func Create(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}

	if err := d.Create(ctx, state); err != nil {
		return err
	}
	if err := state.Save(driver.StatePath(cfg.InstanceName)); err != nil {
		return err
	}

	return d.WaitForSSHD(ctx, state.Hostname, state.Username)
}

// Converge runs the provisioner lifecycle on the created instance.
func Converge(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}
	if err := requireCreated(cfg, state); err != nil {
		return err
	}
	return d.Converge(ctx, state)
}

// Setup installs the test-runner agent on the created instance.
func Setup(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}
	if err := requireCreated(cfg, state); err != nil {
		return err
	}
	return d.Setup(ctx, state)
}

// Verify syncs and runs the test suites on the created instance.
func Verify(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}
	if err := requireCreated(cfg, state); err != nil {
		return err
	}
	return d.Verify(ctx, state)
}

// Destroy tears the instance down and discards its persisted state.
func Destroy(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}

	if err := d.Destroy(ctx, state); err != nil {
		return err
	}
	return removeState(driver.StatePath(cfg.InstanceName))
}

// Test runs the full lifecycle end to end and discards the state on
// success.
func Test(ctx context.Context, configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}

	if err := d.Test(ctx, state); err != nil {
		// Persist whatever was created so a later destroy can find it.
		_ = state.Save(driver.StatePath(cfg.InstanceName))
		return err
	}
	return removeState(driver.StatePath(cfg.InstanceName))
}

func removeState(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
