// Package shell runs external commands for the host probes and installer.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return "command " + e.Command + " failed: " + e.Stderr
	}
	return "command " + e.Command + " failed"
}

// Runner executes commands resolved from PATH.
type Runner struct {
	// Check makes a non-zero exit an *ExitError. Without it, the output
	// of a failed command is returned as is.
	Check bool
	Log   logrus.FieldLogger
}

// New returns a Runner that fails on non-zero exits.
func New(log logrus.FieldLogger) *Runner {
	return &Runner{Check: true, Log: log}
}

// Run executes name with args and returns its trimmed standard output.
// Names without a path separator are looked up in PATH, never in the
// current directory.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	path := name
	if !strings.ContainsRune(name, '/') {
		p, err := safeexec.LookPath(name)
		if err != nil {
			return "", errors.Wrapf(err, "look up %s", name)
		}
		path = p
	}

	cmdline := strings.Join(append([]string{name}, args...), " ")
	if r.Log != nil {
		r.Log.WithField("command", cmdline).Debug("running command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if !r.Check {
				return out, nil
			}
			return out, &ExitError{Command: cmdline, Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return out, errors.Wrapf(err, "run %s", cmdline)
	}
	return out, nil
}
