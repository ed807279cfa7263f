package ssh

import (
	"context"
	"time"

	"github.com/aerickson/test-kitchen/internal/util/retry"
)

// WaitOptions tune the readiness poll.
type WaitOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// WaitUntilReady polls the remote endpoint until sshd accepts an
// authenticated connection and runs a trivial command, or the retry budget
// is exhausted. Freshly created instances routinely refuse connections for
// a while after boot, so refused/reset dials are expected here.
func WaitUntilReady(ctx context.Context, opts ConnectOptions, wait WaitOptions) error {
	if wait.MaxAttempts == 0 {
		wait.MaxAttempts = 30
	}
	if wait.InitialDelay == 0 {
		wait.InitialDelay = 2 * time.Second
	}
	if wait.MaxDelay == 0 {
		wait.MaxDelay = 15 * time.Second
	}

	attempt := 0
	return retry.Do(ctx, func() error {
		attempt++
		opts.Logger.V(1).Info("waiting for sshd", "addr", opts.Addr(), "attempt", attempt)

		conn, err := Open(opts)
		if err != nil {
			if IsAuthenticationError(err) {
				// The daemon answered; bad credentials will not improve.
				return retry.Fatal(err)
			}
			return err
		}
		defer func() { _ = conn.Close() }()

		_, err = conn.Execute("echo ready")
		return err
	},
		retry.WithMaxAttempts(wait.MaxAttempts),
		retry.WithInitialDelay(wait.InitialDelay),
		retry.WithMaxDelay(wait.MaxDelay),
	)
}
