// Package driver implements the remote-provisioning lifecycle engine: it
// drives an already-created instance through converge, setup and verify
// over one SSH connection per phase, delegating create and destroy to a
// pluggable instance lifecycle.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/aerickson/test-kitchen/internal/config"
	"github.com/aerickson/test-kitchen/internal/metrics"
	ssh "github.com/aerickson/test-kitchen/internal/platform/ssh"
	"github.com/aerickson/test-kitchen/internal/probe"
	"github.com/aerickson/test-kitchen/internal/provisioner"
	"github.com/aerickson/test-kitchen/internal/verifier"
)

// Transport opens connections and polls endpoint readiness. Retry and
// backoff policy for readiness lives behind this interface, not in the
// driver.
type Transport interface {
	Open(opts ssh.ConnectOptions) (Connection, error)
	WaitUntilReady(ctx context.Context, opts ssh.ConnectOptions, wait ssh.WaitOptions) error
}

// InstanceLifecycle creates and destroys instances. Concrete cloud drivers
// implement it; a driver without one rejects create and destroy with
// ErrNotImplemented.
type InstanceLifecycle interface {
	Create(ctx context.Context, state *InstanceState) error
	Destroy(ctx context.Context, state *InstanceState) error
}

// ProvisionerFactory builds the provisioner for one converge call.
type ProvisionerFactory func(cfg *config.Config, instance, logLevel string) (provisioner.Provisioner, error)

// Driver orchestrates the lifecycle phases for one instance. It is not
// safe for concurrent phase calls; callers run one phase at a time per
// driver, with one driver per instance.
type Driver struct {
	cfg      *config.Config
	log      logr.Logger
	timeouts *config.Timeouts

	transport      Transport
	lifecycle      InstanceLifecycle
	newProvisioner ProvisionerFactory
	verifier       verifier.Verifier
	prober         probe.Prober
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger, also attached to every connection.
func WithLogger(log logr.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// WithLifecycle wires in a concrete create/destroy implementation.
func WithLifecycle(lc InstanceLifecycle) Option {
	return func(d *Driver) { d.lifecycle = lc }
}

// WithTransport replaces the SSH transport (used by tests).
func WithTransport(t Transport) Option {
	return func(d *Driver) { d.transport = t }
}

// WithProvisionerFactory replaces the provisioner factory (used by tests).
func WithProvisionerFactory(f ProvisionerFactory) Option {
	return func(d *Driver) { d.newProvisioner = f }
}

// WithVerifier replaces the test-runner collaborator.
func WithVerifier(v verifier.Verifier) Option {
	return func(d *Driver) { d.verifier = v }
}

// WithProber replaces the proxy reachability prober.
func WithProber(p probe.Prober) Option {
	return func(d *Driver) { d.prober = p }
}

// WithTimeouts replaces the timeout set.
func WithTimeouts(t *config.Timeouts) Option {
	return func(d *Driver) { d.timeouts = t }
}

// New creates a driver for the given configuration.
func New(cfg *config.Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:            cfg,
		log:            logr.Discard(),
		timeouts:       config.LoadTimeouts(),
		transport:      sshTransport{},
		newProvisioner: provisioner.New,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.verifier == nil {
		d.verifier = verifier.New(cfg)
	}
	if d.prober == nil {
		d.prober = probe.NewHTTPProber(d.timeouts.ProxyProbe)
	}
	return d
}

// Create provisions a new instance and records its facts into state.
func (d *Driver) Create(ctx context.Context, state *InstanceState) error {
	return d.observe("create", func() error {
		if d.lifecycle == nil {
			return fmt.Errorf("create: %w", ErrNotImplemented)
		}
		return d.lifecycle.Create(ctx, state)
	})
}

// Converge runs the provisioner lifecycle on the instance: install, init,
// sandbox upload, prepare, run. Steps are strictly ordered; the first
// failure aborts the rest. The provisioner's sandbox is cleaned up on
// every exit path, exactly once.
func (d *Driver) Converge(ctx context.Context, state *InstanceState) error {
	return d.observe("converge", func() error {
		opts := d.connectionArgs(state)

		var prov provisioner.Provisioner
		defer func() {
			if prov == nil {
				return
			}
			if err := prov.CleanupSandbox(); err != nil {
				d.log.Error(err, "sandbox cleanup failed")
			}
		}()

		prov, err := d.newProvisioner(d.cfg, d.cfg.InstanceName, provisioner.DeriveLogLevel(d.cfg))
		if err != nil {
			return err
		}

		conn, err := d.transport.Open(opts)
		if err != nil {
			return actionFailed(err)
		}
		defer func() { _ = conn.Close() }()

		if err := d.runRemote(prov.InstallCommand(), conn); err != nil {
			return err
		}
		if err := d.runRemote(prov.InitCommand(), conn); err != nil {
			return err
		}

		sandbox, err := prov.CreateSandbox()
		if err != nil {
			return err
		}
		if err := d.transferPath(ctx, sandbox, prov.HomePath(), conn); err != nil {
			return err
		}

		if err := d.runRemote(prov.PrepareCommand(), conn); err != nil {
			return err
		}
		return d.runRemote(prov.RunCommand(), conn)
	})
}

// Setup installs the test-runner agent on the instance.
func (d *Driver) Setup(ctx context.Context, state *InstanceState) error {
	return d.observe("setup", func() error {
		conn, err := d.transport.Open(d.connectionArgs(state))
		if err != nil {
			return actionFailed(err)
		}
		defer func() { _ = conn.Close() }()

		return d.runRemote(d.verifier.SetupCommand(), conn)
	})
}

// Verify syncs the test suites and runs them. Sync is attempted before the
// run even when it resolves to a no-op.
func (d *Driver) Verify(ctx context.Context, state *InstanceState) error {
	return d.observe("verify", func() error {
		conn, err := d.transport.Open(d.connectionArgs(state))
		if err != nil {
			return actionFailed(err)
		}
		defer func() { _ = conn.Close() }()

		if err := d.runRemote(d.verifier.SyncCommand(), conn); err != nil {
			return err
		}
		return d.runRemote(d.verifier.RunCommand(), conn)
	})
}

// Destroy tears down the instance and clears its recorded facts.
func (d *Driver) Destroy(ctx context.Context, state *InstanceState) error {
	return d.observe("destroy", func() error {
		if d.lifecycle == nil {
			return fmt.Errorf("destroy: %w", ErrNotImplemented)
		}
		return d.lifecycle.Destroy(ctx, state)
	})
}

// Test runs the full cycle: create, wait for sshd, converge, setup,
// verify, then destroy on success.
func (d *Driver) Test(ctx context.Context, state *InstanceState) error {
	if err := d.Create(ctx, state); err != nil {
		return err
	}
	if err := d.WaitForSSHD(ctx, state.Hostname, state.Username); err != nil {
		return err
	}
	if err := d.Converge(ctx, state); err != nil {
		return err
	}
	if err := d.Setup(ctx, state); err != nil {
		return err
	}
	if err := d.Verify(ctx, state); err != nil {
		return err
	}
	return d.Destroy(ctx, state)
}

// LoginCommand derives the interactive login invocation for the instance.
// No connection is opened.
func (d *Driver) LoginCommand(state *InstanceState) ssh.LoginCommand {
	return ssh.BuildLoginCommand(d.connectionArgs(state))
}

// ConnectionArgs exposes the merged connection arguments for an instance,
// for callers that feed them back into SSH or external tooling.
func (d *Driver) ConnectionArgs(state *InstanceState) ssh.ConnectOptions {
	return d.connectionArgs(state)
}

// SSH runs one ad-hoc command over a connection opened with the supplied
// arguments, bypassing the configuration merge.
func (d *Driver) SSH(args ssh.ConnectOptions, command string) error {
	conn, err := d.transport.Open(args)
	if err != nil {
		return actionFailed(err)
	}
	defer func() { _ = conn.Close() }()

	return d.runRemote(command, conn)
}

// WaitForSSHD polls the instance until sshd accepts authenticated
// connections or the retry budget is exhausted.
func (d *Driver) WaitForSSHD(ctx context.Context, hostname, username string) error {
	opts := d.connectionArgs(&InstanceState{Hostname: hostname, Username: username})
	return d.transport.WaitUntilReady(ctx, opts, ssh.WaitOptions{
		MaxAttempts:  d.timeouts.RetryMaxAttempts,
		InitialDelay: d.timeouts.RetryInitialDelay,
	})
}

// observe wraps a phase with progress logging and metrics.
func (d *Driver) observe(phase string, fn func() error) error {
	start := time.Now()
	d.log.Info("phase starting", "instance", d.cfg.InstanceName, "phase", phase)

	err := fn()
	metrics.ObservePhase(d.cfg.InstanceName, phase, start, err)

	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		d.log.Error(err, "phase failed", "instance", d.cfg.InstanceName, "phase", phase, "elapsed", elapsed.String())
		return err
	}
	d.log.Info("phase completed", "instance", d.cfg.InstanceName, "phase", phase, "elapsed", elapsed.String())
	return nil
}

// sshTransport adapts the ssh package to the Transport interface.
type sshTransport struct{}

func (sshTransport) Open(opts ssh.ConnectOptions) (Connection, error) {
	return ssh.Open(opts)
}

func (sshTransport) WaitUntilReady(ctx context.Context, opts ssh.ConnectOptions, wait ssh.WaitOptions) error {
	return ssh.WaitUntilReady(ctx, opts, wait)
}
