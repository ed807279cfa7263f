package driver

import "context"

// Connection is the transport session surface the executor needs. The ssh
// package's Connection satisfies it; tests substitute fakes.
type Connection interface {
	Execute(command string) (string, error)
	Upload(ctx context.Context, localPath, remotePath string) error
	Close() error
}

// runRemote executes one environment-wrapped command over the connection.
// An absent command is a no-op, not an error. Transport failures surface
// as ErrActionFailed with the original message preserved.
func (d *Driver) runRemote(command string, conn Connection) error {
	if command == "" {
		return nil
	}
	if _, err := conn.Execute(d.wrapCommand(command)); err != nil {
		return actionFailed(err)
	}
	return nil
}

// transferPath uploads one local path over the connection. An absent local
// path is a no-op, not an error.
func (d *Driver) transferPath(ctx context.Context, localPath, remotePath string, conn Connection) error {
	if localPath == "" {
		return nil
	}
	if err := conn.Upload(ctx, localPath, remotePath); err != nil {
		return actionFailed(err)
	}
	return nil
}
