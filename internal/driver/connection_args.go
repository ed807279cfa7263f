package driver

import (
	ssh "github.com/aerickson/test-kitchen/internal/platform/ssh"
)

// connectionArgs merges per-instance state over the static configuration
// into the options for one connection. State wins on overlapping fields.
// Host key verification and strict checking are always disabled inside the
// transport; optional fields are copied only when set.
func (d *Driver) connectionArgs(state *InstanceState) ssh.ConnectOptions {
	opts := ssh.ConnectOptions{
		Host:        state.Hostname,
		User:        state.Username,
		DialTimeout: d.timeouts.SSHDial,
		Logger:      d.log,
	}

	if state.Password != "" {
		opts.Password = state.Password
	}
	if state.ForwardAgent {
		opts.ForwardAgent = true
	}
	switch {
	case state.Port != 0:
		opts.Port = state.Port
	case d.cfg.Port != 0:
		opts.Port = d.cfg.Port
	}
	if d.cfg.SSHKey != "" {
		// A single configured key still travels as a list; the transport
		// tries keys in order.
		opts.Keys = []string{d.cfg.SSHKey}
	}

	return opts
}
