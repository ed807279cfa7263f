package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionArgsMinimalScenario(t *testing.T) {
	cfg := testConfig() // sudo: true, port: 22
	d := New(cfg, WithTransport(&fakeTransport{conn: &fakeConn{}}))

	opts := d.connectionArgs(&InstanceState{Hostname: "h", Username: "u"})

	assert.Equal(t, "h", opts.Host)
	assert.Equal(t, "u", opts.User)
	assert.Equal(t, 22, opts.Port)
	assert.Empty(t, opts.Password)
	assert.Empty(t, opts.Keys)
	assert.False(t, opts.ForwardAgent)
}

func TestConnectionArgsConditionalFields(t *testing.T) {
	cfg := testConfig()
	cfg.SSHKey = "/home/ci/.ssh/id_ed25519"
	d := New(cfg, WithTransport(&fakeTransport{conn: &fakeConn{}}))

	opts := d.connectionArgs(&InstanceState{
		Hostname:     "h",
		Username:     "u",
		Password:     "s3cret",
		ForwardAgent: true,
	})

	assert.Equal(t, "s3cret", opts.Password)
	assert.True(t, opts.ForwardAgent)
	require.Len(t, opts.Keys, 1, "single key is normalized into a list")
	assert.Equal(t, "/home/ci/.ssh/id_ed25519", opts.Keys[0])
}

func TestConnectionArgsStateWinsOnPort(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 22
	d := New(cfg, WithTransport(&fakeTransport{conn: &fakeConn{}}))

	opts := d.connectionArgs(&InstanceState{Hostname: "h", Username: "u", Port: 2222})
	assert.Equal(t, 2222, opts.Port, "instance state takes precedence over configuration")
}
