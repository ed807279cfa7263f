// Package hcloud implements the instance lifecycle on Hetzner Cloud:
// create provisions a server and records its connection facts, destroy
// deletes it again.
package hcloud

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/aerickson/test-kitchen/internal/config"
	"github.com/aerickson/test-kitchen/internal/driver"
	"github.com/aerickson/test-kitchen/internal/util/retry"
)

// Lifecycle creates and destroys test instances via the Hetzner Cloud API.
type Lifecycle struct {
	client   *hcloud.Client
	cfg      *config.Config
	timeouts *config.Timeouts
	log      logr.Logger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClient sets a custom hcloud client (useful for testing).
func WithClient(c *hcloud.Client) Option {
	return func(l *Lifecycle) { l.client = c }
}

// WithTimeouts sets custom timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(l *Lifecycle) { l.timeouts = t }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(l *Lifecycle) { l.log = log }
}

// New creates a Lifecycle from the driver configuration.
func New(cfg *config.Config, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		client:   hcloud.NewClient(hcloud.WithToken(cfg.HCloud.Token)),
		cfg:      cfg,
		timeouts: config.LoadTimeouts(),
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ driver.InstanceLifecycle = (*Lifecycle)(nil)

// Create provisions a server and records hostname, username and server ID
// into the instance state. Idempotent: if the state already names a host,
// the existing instance is reused.
func (l *Lifecycle) Create(ctx context.Context, state *driver.InstanceState) error {
	if state.Hostname != "" {
		l.log.Info("instance already created, reusing", "hostname", state.Hostname)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeouts.ServerCreate)
	defer cancel()

	opts, err := l.buildCreateOpts(ctx)
	if err != nil {
		return err
	}

	l.log.Info("creating server", "name", opts.Name, "type", l.cfg.HCloud.ServerType)
	result, _, err := l.client.Server.Create(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	server, err := l.waitForRunning(ctx, result.Server.ID)
	if err != nil {
		return err
	}
	if server.PublicNet.IPv4.IP == nil {
		return fmt.Errorf("server %s has no public IPv4 address", opts.Name)
	}

	state.Hostname = server.PublicNet.IPv4.IP.String()
	state.Username = "root"
	state.ServerID = server.ID

	l.log.Info("server running", "hostname", state.Hostname, "id", server.ID)
	return nil
}

// Destroy deletes the server named in the state and clears the recorded
// facts. Destroying a never-created instance is a no-op.
func (l *Lifecycle) Destroy(ctx context.Context, state *driver.InstanceState) error {
	if state.ServerID == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeouts.Delete)
	defer cancel()

	server, _, err := l.client.Server.GetByID(ctx, state.ServerID)
	if err != nil {
		return fmt.Errorf("failed to look up server %d: %w", state.ServerID, err)
	}
	if server != nil {
		l.log.Info("deleting server", "id", server.ID)
		if _, _, err := l.client.Server.DeleteWithResult(ctx, server); err != nil {
			return fmt.Errorf("failed to delete server %d: %w", server.ID, err)
		}
	}

	*state = driver.InstanceState{}
	return nil
}

// buildCreateOpts resolves server type, image, location and ssh keys into
// creation options.
func (l *Lifecycle) buildCreateOpts(ctx context.Context) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := l.client.ServerType.Get(ctx, l.cfg.HCloud.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", l.cfg.HCloud.ServerType)
	}

	image, _, err := l.client.Image.GetForArchitecture(ctx, l.cfg.HCloud.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s", l.cfg.HCloud.Image)
	}

	var sshKeys []*hcloud.SSHKey
	for _, name := range l.cfg.HCloud.SSHKeys {
		key, _, err := l.client.SSHKey.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get ssh key %s: %w", name, err)
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("ssh key not found: %s", name)
		}
		sshKeys = append(sshKeys, key)
	}

	opts := hcloud.ServerCreateOpts{
		Name:       fmt.Sprintf("kitchen-%s", l.cfg.InstanceName),
		ServerType: serverType,
		Image:      image,
		SSHKeys:    sshKeys,
		Labels: map[string]string{
			"managed-by": "test-kitchen",
			"instance":   l.cfg.InstanceName,
		},
	}

	if l.cfg.HCloud.Location != "" {
		location, _, err := l.client.Location.Get(ctx, l.cfg.HCloud.Location)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location: %w", err)
		}
		opts.Location = location
	}

	return opts, nil
}

// waitForRunning polls the server until it reports running status.
func (l *Lifecycle) waitForRunning(ctx context.Context, id int64) (*hcloud.Server, error) {
	var server *hcloud.Server
	err := retry.Do(ctx, func() error {
		s, _, err := l.client.Server.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return retry.Fatal(fmt.Errorf("server %d disappeared while starting", id))
		}
		if s.Status != hcloud.ServerStatusRunning {
			return fmt.Errorf("server %d is %s", id, s.Status)
		}
		server = s
		return nil
	},
		retry.WithMaxAttempts(l.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(l.timeouts.RetryInitialDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("server %d never reached running: %w", id, err)
	}
	return server, nil
}
