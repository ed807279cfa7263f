package ssh

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionRefused means the remote endpoint refused the connection.
	ErrConnectionRefused = errors.New("connect: connection refused")
	// ErrAuthenticationFailed means sshd rejected every offered credential.
	ErrAuthenticationFailed = errors.New("ssh: unable to authenticate")
	// ErrTimeout means the dial or an operation timed out.
	ErrTimeout = errors.New("i/o timeout")
)

// IsConnectionRefusedError checks whether the ssh error is a connection refused error.
func IsConnectionRefusedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), ErrConnectionRefused.Error())
}

// IsAuthenticationError checks whether the ssh error is an authentication failure.
func IsAuthenticationError(err error) bool {
	return err != nil && strings.Contains(err.Error(), ErrAuthenticationFailed.Error())
}

// IsTimeoutError checks whether the ssh error is a timeout.
func IsTimeoutError(err error) bool {
	return err != nil && strings.Contains(err.Error(), ErrTimeout.Error())
}
