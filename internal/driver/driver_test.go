package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerickson/test-kitchen/internal/config"
	ssh "github.com/aerickson/test-kitchen/internal/platform/ssh"
	"github.com/aerickson/test-kitchen/internal/provisioner"
)

// fakeConn records operations and fails commands on demand.
type fakeConn struct {
	executed []string
	uploads  []string
	failOn   string
	failErr  error
	closed   int
}

func (c *fakeConn) Execute(command string) (string, error) {
	c.executed = append(c.executed, command)
	if c.failOn != "" && command == c.failOn {
		return "", c.failErr
	}
	return "", nil
}

func (c *fakeConn) Upload(_ context.Context, localPath, remotePath string) error {
	c.uploads = append(c.uploads, localPath+" -> "+remotePath)
	if c.failOn == "upload" {
		return c.failErr
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

type fakeTransport struct {
	conn    *fakeConn
	openErr error
	opened  []ssh.ConnectOptions
	waited  []ssh.ConnectOptions
}

func (t *fakeTransport) Open(opts ssh.ConnectOptions) (Connection, error) {
	t.opened = append(t.opened, opts)
	if t.openErr != nil {
		return nil, t.openErr
	}
	return t.conn, nil
}

func (t *fakeTransport) WaitUntilReady(_ context.Context, opts ssh.ConnectOptions, _ ssh.WaitOptions) error {
	t.waited = append(t.waited, opts)
	return nil
}

// fakeProvisioner returns fixed command strings and counts cleanups.
type fakeProvisioner struct {
	install, init, prepare, run string
	home                        string
	sandbox                     string
	sandboxErr                  error
	cleanups                    int
}

func (p *fakeProvisioner) InstallCommand() string { return p.install }
func (p *fakeProvisioner) InitCommand() string    { return p.init }
func (p *fakeProvisioner) PrepareCommand() string { return p.prepare }
func (p *fakeProvisioner) RunCommand() string     { return p.run }
func (p *fakeProvisioner) HomePath() string       { return p.home }
func (p *fakeProvisioner) CreateSandbox() (string, error) {
	return p.sandbox, p.sandboxErr
}
func (p *fakeProvisioner) CleanupSandbox() error {
	p.cleanups++
	return nil
}

type fakeVerifier struct {
	setup, sync, run string
}

func (v *fakeVerifier) SetupCommand() string { return v.setup }
func (v *fakeVerifier) SyncCommand() string  { return v.sync }
func (v *fakeVerifier) RunCommand() string   { return v.run }

type fakeLifecycle struct {
	created, destroyed int
	err                error
}

func (l *fakeLifecycle) Create(_ context.Context, state *InstanceState) error {
	l.created++
	state.Hostname = "203.0.113.10"
	state.Username = "root"
	return l.err
}

func (l *fakeLifecycle) Destroy(_ context.Context, _ *InstanceState) error {
	l.destroyed++
	return l.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.InstanceName = "default-debian"
	return cfg
}

func testDriver(cfg *config.Config, tr Transport, prov *fakeProvisioner, opts ...Option) *Driver {
	all := []Option{WithTransport(tr)}
	if prov != nil {
		all = append(all, WithProvisionerFactory(
			func(_ *config.Config, _, _ string) (provisioner.Provisioner, error) {
				return prov, nil
			}))
	}
	all = append(all, opts...)
	return New(cfg, all...)
}

func TestConvergeRunsStepsInOrder(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	prov := &fakeProvisioner{
		install: "install engine",
		init:    "init engine",
		prepare: "prepare env",
		run:     "run engine",
		home:    "/tmp/kitchen",
		sandbox: "/tmp/sandbox-1",
	}
	d := testDriver(testConfig(), tr, prov)

	state := &InstanceState{Hostname: "h", Username: "u"}
	require.NoError(t, d.Converge(context.Background(), state))

	assert.Equal(t, []string{"install engine", "init engine", "prepare env", "run engine"}, conn.executed)
	assert.Equal(t, []string{"/tmp/sandbox-1 -> /tmp/kitchen"}, conn.uploads)
	assert.Equal(t, 1, prov.cleanups)
	assert.Equal(t, 1, conn.closed)
	require.Len(t, tr.opened, 1)
	assert.Equal(t, "h", tr.opened[0].Host)
	assert.Equal(t, "u", tr.opened[0].User)
}

func TestConvergeSkipsAbsentSteps(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	prov := &fakeProvisioner{run: "run engine", home: "/tmp/kitchen"}
	d := testDriver(testConfig(), tr, prov)

	require.NoError(t, d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"}))

	assert.Equal(t, []string{"run engine"}, conn.executed)
	assert.Empty(t, conn.uploads, "no sandbox means no upload")
	assert.Equal(t, 1, prov.cleanups)
}

func TestConvergeCleanupRunsOnceWhenRunFails(t *testing.T) {
	conn := &fakeConn{failOn: "run engine", failErr: errors.New("exit status 1")}
	tr := &fakeTransport{conn: conn}
	prov := &fakeProvisioner{
		install: "install engine",
		run:     "run engine",
		home:    "/tmp/kitchen",
		sandbox: "/tmp/sandbox-1",
	}
	d := testDriver(testConfig(), tr, prov)

	err := d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Equal(t, 1, prov.cleanups, "sandbox cleanup must run exactly once")
	assert.Equal(t, 1, conn.closed, "connection must close on the failure path")
}

func TestConvergeAbortsRemainingStepsOnFailure(t *testing.T) {
	conn := &fakeConn{failOn: "init engine", failErr: errors.New("boom")}
	tr := &fakeTransport{conn: conn}
	prov := &fakeProvisioner{
		install: "install engine",
		init:    "init engine",
		prepare: "prepare env",
		run:     "run engine",
		home:    "/tmp/kitchen",
		sandbox: "/tmp/sandbox-1",
	}
	d := testDriver(testConfig(), tr, prov)

	err := d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"})
	require.Error(t, err)
	assert.Equal(t, []string{"install engine", "init engine"}, conn.executed)
	assert.Empty(t, conn.uploads)
	assert.Equal(t, 1, prov.cleanups)
}

func TestConvergeProvisionerConstructionFailure(t *testing.T) {
	tr := &fakeTransport{conn: &fakeConn{}}
	factoryErr := errors.New("scripts path missing")
	d := New(testConfig(),
		WithTransport(tr),
		WithProvisionerFactory(func(_ *config.Config, _, _ string) (provisioner.Provisioner, error) {
			return nil, factoryErr
		}))

	err := d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, factoryErr, "collaborator errors propagate unwrapped")
	assert.NotErrorIs(t, err, ErrActionFailed)
	assert.Empty(t, tr.opened, "no connection is opened when construction fails")
}

func TestConvergeSandboxCreationFailureStillCleansUp(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	prov := &fakeProvisioner{
		init:       "init engine",
		home:       "/tmp/kitchen",
		sandboxErr: errors.New("disk full"),
	}
	d := testDriver(testConfig(), tr, prov)

	err := d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrActionFailed)
	assert.Equal(t, 1, prov.cleanups)
	assert.Equal(t, 1, conn.closed)
}

func TestConvergeOpenFailureIsActionFailed(t *testing.T) {
	tr := &fakeTransport{openErr: errors.New("connect: connection refused")}
	prov := &fakeProvisioner{}
	d := testDriver(testConfig(), tr, prov)

	err := d.Converge(context.Background(), &InstanceState{Hostname: "h", Username: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, prov.cleanups)
}

func TestSetupRunsAgentSetup(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	d := New(testConfig(),
		WithTransport(tr),
		WithVerifier(&fakeVerifier{setup: "agent setup"}))

	require.NoError(t, d.Setup(context.Background(), &InstanceState{Hostname: "h", Username: "u"}))
	assert.Equal(t, []string{"agent setup"}, conn.executed)
	assert.Equal(t, 1, conn.closed)
}

func TestVerifySyncsBeforeRun(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	d := New(testConfig(),
		WithTransport(tr),
		WithVerifier(&fakeVerifier{sync: "agent sync", run: "agent run"}))

	require.NoError(t, d.Verify(context.Background(), &InstanceState{Hostname: "h", Username: "u"}))
	assert.Equal(t, []string{"agent sync", "agent run"}, conn.executed)
}

func TestVerifyToleratesAbsentSync(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	d := New(testConfig(),
		WithTransport(tr),
		WithVerifier(&fakeVerifier{run: "agent run"}))

	require.NoError(t, d.Verify(context.Background(), &InstanceState{Hostname: "h", Username: "u"}))
	assert.Equal(t, []string{"agent run"}, conn.executed)
}

func TestCreateWithoutLifecycleNotImplemented(t *testing.T) {
	d := New(testConfig(), WithTransport(&fakeTransport{conn: &fakeConn{}}))

	err := d.Create(context.Background(), &InstanceState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)

	err = d.Destroy(context.Background(), &InstanceState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestCreateDelegatesToLifecycle(t *testing.T) {
	lc := &fakeLifecycle{}
	d := New(testConfig(),
		WithTransport(&fakeTransport{conn: &fakeConn{}}),
		WithLifecycle(lc))

	state := &InstanceState{}
	require.NoError(t, d.Create(context.Background(), state))
	assert.Equal(t, 1, lc.created)
	assert.Equal(t, "203.0.113.10", state.Hostname)

	require.NoError(t, d.Destroy(context.Background(), state))
	assert.Equal(t, 1, lc.destroyed)
}

func TestSSHBypassesConfigMerge(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	cfg := testConfig()
	cfg.SSHKey = "/home/ci/.ssh/id_ed25519"
	d := New(cfg, WithTransport(tr))

	args := ssh.ConnectOptions{Host: "elsewhere", User: "admin", Port: 2200}
	require.NoError(t, d.SSH(args, "uptime"))

	require.Len(t, tr.opened, 1)
	assert.Equal(t, args, tr.opened[0], "caller-supplied args are used verbatim")
	assert.Equal(t, []string{"uptime"}, conn.executed)
	assert.Equal(t, 1, conn.closed)
}

func TestLoginCommandIsPureDerivation(t *testing.T) {
	tr := &fakeTransport{conn: &fakeConn{}}
	cfg := testConfig()
	cfg.SSHKey = "/home/ci/.ssh/id_ed25519"
	d := New(cfg, WithTransport(tr))

	cmd := d.LoginCommand(&InstanceState{Hostname: "h", Username: "u"})
	assert.Equal(t, "ssh", cmd.Command)
	assert.Equal(t, "u@h", cmd.Args[len(cmd.Args)-1])
	assert.Empty(t, tr.opened, "login command derivation opens no connection")
}

func TestWaitForSSHDDelegatesToTransport(t *testing.T) {
	tr := &fakeTransport{conn: &fakeConn{}}
	d := New(testConfig(), WithTransport(tr))

	require.NoError(t, d.WaitForSSHD(context.Background(), "h", "u"))
	require.Len(t, tr.waited, 1)
	assert.Equal(t, "h", tr.waited[0].Host)
	assert.Equal(t, "u", tr.waited[0].User)
}

func TestTestRunsFullCycle(t *testing.T) {
	conn := &fakeConn{}
	tr := &fakeTransport{conn: conn}
	lc := &fakeLifecycle{}
	prov := &fakeProvisioner{run: "run engine", home: "/tmp/kitchen"}
	d := testDriver(testConfig(), tr, prov,
		WithLifecycle(lc),
		WithVerifier(&fakeVerifier{setup: "agent setup", sync: "agent sync", run: "agent run"}))

	require.NoError(t, d.Test(context.Background(), &InstanceState{}))
	assert.Equal(t, 1, lc.created)
	assert.Equal(t, 1, lc.destroyed)
	assert.Len(t, tr.waited, 1)
	assert.Equal(t, []string{"run engine", "agent setup", "agent sync", "agent run"}, conn.executed)
}

func TestTestStopsAfterCreateFailure(t *testing.T) {
	lc := &fakeLifecycle{err: fmt.Errorf("quota exceeded")}
	tr := &fakeTransport{conn: &fakeConn{}}
	d := New(testConfig(), WithTransport(tr), WithLifecycle(lc))

	err := d.Test(context.Background(), &InstanceState{})
	require.Error(t, err)
	assert.Empty(t, tr.waited)
	assert.Equal(t, 0, lc.destroyed)
}
