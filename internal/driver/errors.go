package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned when create or destroy is invoked on a
	// driver that has no instance lifecycle wired in.
	ErrNotImplemented = errors.New("not implemented by this driver")

	// ErrActionFailed is the unified wrapper for transport-layer failures.
	// Callers above the executor never see transport-specific error kinds.
	ErrActionFailed = errors.New("remote action failed")
)

// actionFailed wraps a transport error into the unified taxonomy, keeping
// the original message.
func actionFailed(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrActionFailed, err.Error())
}
