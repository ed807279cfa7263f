package ssh

import (
	"fmt"
	"strings"
)

// LoginCommand describes an interactive ssh invocation for the caller to
// exec. No connection is opened to build it.
type LoginCommand struct {
	Command string
	Args    []string
}

// String renders the full command line.
func (l LoginCommand) String() string {
	return strings.Join(append([]string{l.Command}, l.Args...), " ")
}

// BuildLoginCommand derives the interactive login invocation from the
// connection options, mirroring how connections are opened: host key
// checks off, optional key, port and agent forwarding.
func BuildLoginCommand(opts ConnectOptions) LoginCommand {
	args := []string{
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "StrictHostKeyChecking=no",
		"-o", "LogLevel=ERROR",
	}
	for _, key := range opts.Keys {
		args = append(args, "-i", key)
	}
	if opts.ForwardAgent {
		args = append(args, "-o", "ForwardAgent=yes")
	}
	if opts.Port != 0 && opts.Port != defaultPort {
		args = append(args, "-p", fmt.Sprintf("%d", opts.Port))
	}
	args = append(args, fmt.Sprintf("%s@%s", opts.User, opts.Host))

	return LoginCommand{Command: "ssh", Args: args}
}
