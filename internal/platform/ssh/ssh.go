// Package ssh is the transport collaborator of the lifecycle engine: it
// opens authenticated connections to remote instances, executes commands,
// uploads files, and polls sshd readiness.
//
// Security: host key verification is disabled. Instances are ephemeral test
// machines whose keys change on every create, so known-hosts checking would
// only ever produce noise.
package ssh

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

const defaultPort = 22

// ConnectOptions carries everything needed to open one connection. It is
// assembled by the driver from configuration and instance state.
type ConnectOptions struct {
	Host         string
	User         string
	Password     string
	Port         int
	Keys         []string // private key file paths, tried in order
	ForwardAgent bool
	DialTimeout  time.Duration
	Logger       logr.Logger
}

// Addr returns the host:port dial address, defaulting the port to 22.
func (o ConnectOptions) Addr() string {
	port := o.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", o.Host, port)
}

// AuthMethods builds the SSH authentication methods from the options.
// Keys are loaded from disk and parsed; a password, when present, is
// offered after public keys.
func (o ConnectOptions) AuthMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	for _, keyPath := range o.Keys {
		// #nosec G304
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read private key %s", keyPath)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse private key %s", keyPath)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if o.Password != "" {
		methods = append(methods, ssh.Password(o.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("no authentication method configured (password or key required)")
	}
	return methods, nil
}

// Connection is one open, authenticated session holder scoped to a single
// phase call. Callers must Close it on every exit path.
type Connection struct {
	client *ssh.Client
	logger logr.Logger
}

// Open dials the remote endpoint once and authenticates. Readiness retries
// belong to WaitUntilReady, not here.
func Open(opts ConnectOptions) (*Connection, error) {
	methods, err := opts.AuthMethods()
	if err != nil {
		return nil, err
	}

	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	clientConfig := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106 -- ephemeral test instances
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", opts.Addr(), clientConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial ssh %s", opts.Addr())
	}

	opts.Logger.V(1).Info("ssh connection established", "addr", opts.Addr(), "user", opts.User)
	return &Connection{client: client, logger: opts.Logger}, nil
}

// Execute runs a command on the remote host and returns combined output.
func (c *Connection) Execute(command string) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", errors.Wrap(err, "unable to create ssh session")
	}
	defer func() { _ = session.Close() }()

	c.logger.V(1).Info("executing remote command", "command", command)

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(command); err != nil {
		return stdout.String(), errors.Wrapf(err, "remote command failed: %s (stderr: %s)",
			command, stderr.String())
	}
	return stdout.String(), nil
}

// Close tears down the underlying client connection.
func (c *Connection) Close() error {
	return c.client.Close()
}
