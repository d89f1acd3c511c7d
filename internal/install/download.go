// Package install drives the agent provisioning workflows: download and
// install the matching installer, prepare encryption targets and repair a
// missing kernel module.
package install

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Opener streams a remote resource. *fetch.Fetcher implements it.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, int64, error)
}

// Runner executes a command and returns its output. *shell.Runner
// implements it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Download streams url into dir/name and marks the file executable.
// It returns the local path.
func Download(ctx context.Context, o Opener, url, dir, name string, noProgress bool) (string, error) {
	body, size, err := o.Open(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", url)
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "mkdir %s", dir)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	pb := func() *progressbar.ProgressBar {
		if noProgress {
			return progressbar.DefaultBytesSilent(size)
		}
		return progressbar.DefaultBytes(size, "downloading")
	}()
	defer pb.Finish()

	if _, err := io.Copy(io.MultiWriter(f, pb), body); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrapf(err, "write to %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrapf(err, "close %s", path)
	}
	if err := os.Chmod(path, 0755); err != nil {
		return "", errors.Wrapf(err, "chmod %s", path)
	}
	return path, nil
}
