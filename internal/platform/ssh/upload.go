package ssh

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	scp "github.com/bramvdbogaerde/go-scp"
	"github.com/pkg/errors"
)

// Upload copies a local file or directory tree to remotePath over the open
// connection. Directories are created with mkdir -p and files streamed via
// scp, preserving the relative layout under remotePath.
func (c *Connection) Upload(ctx context.Context, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", localPath)
	}

	if !info.IsDir() {
		return c.uploadFile(ctx, localPath, path.Join(remotePath, filepath.Base(localPath)))
	}

	if _, err := c.Execute(fmt.Sprintf("mkdir -p %s", remotePath)); err != nil {
		return err
	}

	return filepath.WalkDir(localPath, func(local string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(localPath, local)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		remote := path.Join(remotePath, filepath.ToSlash(rel))
		if d.IsDir() {
			_, err := c.Execute(fmt.Sprintf("mkdir -p %s", remote))
			return err
		}
		return c.uploadFile(ctx, local, remote)
	})
}

// uploadFile streams one file to the remote path. A fresh scp client is
// needed per transfer since each one consumes an ssh session.
func (c *Connection) uploadFile(ctx context.Context, localPath, remotePath string) error {
	scpClient, err := scp.NewClientBySSH(c.client)
	if err != nil {
		return errors.Wrap(err, "unable to create scp client")
	}
	defer scpClient.Close()

	// #nosec G304
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", localPath)
	}
	defer func() { _ = f.Close() }()

	c.logger.V(1).Info("uploading file", "local", localPath, "remote", remotePath)

	if err := scpClient.CopyFromFile(ctx, *f, remotePath, "0644"); err != nil {
		return errors.Wrapf(err, "scp of %s to %s failed", localPath, remotePath)
	}
	return nil
}
