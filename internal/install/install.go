package install

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/leodido/ctecompat"
)

// Installer downloads and runs the agent installer for the local platform.
type Installer struct {
	Locator     *ctecompat.Locator
	Opener      Opener
	Runner      Runner
	DownloadDir string
	NoProgress  bool
	// DryRun stops after computing the download target.
	DryRun bool
	Log    logrus.FieldLogger
}

// Outcome describes a completed (or dry-run) installation.
type Outcome struct {
	Target    *ctecompat.ArtifactTarget `json:"target"`
	LocalPath string                    `json:"local_path,omitempty"`
	Output    string                    `json:"output,omitempty"`
}

func (i *Installer) log() logrus.FieldLogger {
	if i.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return i.Log
}

// Target computes the installer for osDescriptor. With a version the
// filename is derived from the naming scheme; without one the repository
// listing is consulted.
func (i *Installer) Target(ctx context.Context, osDescriptor, version string) (*ctecompat.ArtifactTarget, error) {
	if strings.TrimSpace(version) != "" {
		return i.Locator.Locate(osDescriptor, version)
	}
	code, err := ctecompat.PlatformCode(osDescriptor)
	if err != nil {
		return nil, err
	}
	return i.Locator.Discover(ctx, code)
}

// Install locates, downloads and runs the installer with --install --quiet.
func (i *Installer) Install(ctx context.Context, osDescriptor, version string) (*Outcome, error) {
	target, err := i.Target(ctx, osDescriptor, version)
	if err != nil {
		return nil, err
	}
	log := i.log().WithFields(logrus.Fields{
		"platform": target.PlatformCode,
		"url":      target.DownloadURL,
	})
	out := &Outcome{Target: target}
	if i.DryRun {
		log.Info("dry run: skipping download")
		return out, nil
	}

	log.Info("downloading installer")
	path, err := Download(ctx, i.Opener, target.DownloadURL, i.DownloadDir, target.BinaryFilename, i.NoProgress)
	if err != nil {
		return nil, err
	}
	out.LocalPath = path

	log.WithField("path", path).Info("running installer")
	output, err := i.Runner.Run(ctx, path, "--install", "--quiet")
	out.Output = output
	if err != nil {
		return out, errors.Wrap(err, "agent installer failed")
	}
	return out, nil
}
