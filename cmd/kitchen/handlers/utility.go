package handlers

import (
	"os"
	"os/exec"
)

// execCommand is swapped out in tests.
var execCommand = func(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 -- args derived from local config
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Login derives the interactive login invocation for the instance and
// hands the terminal over to it.
func Login(configPath string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}
	if err := requireCreated(cfg, state); err != nil {
		return err
	}

	login := d.LoginCommand(state)
	return execCommand(login.Command, login.Args...)
}

// Exec runs one ad-hoc command on the instance over a fresh connection.
func Exec(configPath, command string) error {
	d, cfg, state, err := setup(configPath)
	if err != nil {
		return err
	}
	if err := requireCreated(cfg, state); err != nil {
		return err
	}

	return d.SSH(d.ConnectionArgs(state), command)
}
