package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/leodido/ctecompat"
)

type fakeOpener map[string]string

func (o fakeOpener) Open(_ context.Context, location string) (io.ReadCloser, int64, error) {
	body, ok := o[location]
	if !ok {
		return nil, 0, fmt.Errorf("GET %s: 404", location)
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []call
	out   string
	err   error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	return r.out, r.err
}

func TestDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cte_download")
	o := fakeOpener{"https://repo.example/x.bin": "#!/bin/sh\n"}

	path, err := Download(context.Background(), o, "https://repo.example/x.bin", dir, "x.bin", true)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "x.bin"), path)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0755), fi.Mode().Perm())

	_, err = Download(context.Background(), o, "https://repo.example/missing.bin", dir, "m.bin", true)
	require.Error(t, err)
}

// brokenOpener returns a body that fails after a few bytes.
type brokenOpener struct{}

func (brokenOpener) Open(context.Context, string) (io.ReadCloser, int64, error) {
	r := io.MultiReader(strings.NewReader("#!/bin/sh\n"), iotest.ErrReader(errors.New("connection reset")))
	return io.NopCloser(r), 4096, nil
}

func TestDownloadRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Download(context.Background(), brokenOpener{}, "https://repo.example/x.bin", dir, "x.bin", true)
	require.ErrorContains(t, err, "connection reset")

	_, err = os.Stat(filepath.Join(dir, "x.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInstall(t *testing.T) {
	const url = "https://repo.example/cte/bin/rh9/latest/vee-fs-7.6.0-rh9-x86_64.bin"
	runner := &fakeRunner{out: "installed"}
	inst := &Installer{
		Locator:     ctecompat.NewLocator("https://repo.example", nil, nil),
		Opener:      fakeOpener{url: "payload"},
		Runner:      runner,
		DownloadDir: t.TempDir(),
		NoProgress:  true,
	}

	out, err := inst.Install(context.Background(), "Rocky Linux 9.2", "7.6.0")
	require.NoError(t, err)
	require.Equal(t, url, out.Target.DownloadURL)
	require.Equal(t, "installed", out.Output)
	require.Len(t, runner.calls, 1)
	require.Equal(t, out.LocalPath, runner.calls[0].name)
	require.Equal(t, []string{"--install", "--quiet"}, runner.calls[0].args)
}

func TestInstallDiscoversWithoutVersion(t *testing.T) {
	listing := ctecompat.FetcherFunc(func(_ context.Context, location string) ([]byte, error) {
		return []byte(`<a href="vee-fs-7.7.0-ubuntu24-x86_64.bin">bin</a>`), nil
	})
	inst := &Installer{
		Locator: ctecompat.NewLocator("https://repo.example", listing, nil),
		DryRun:  true,
	}

	out, err := inst.Install(context.Background(), "Ubuntu 24.04 LTS", "")
	require.NoError(t, err)
	require.Equal(t, "ubuntu24", out.Target.PlatformCode)
	require.Equal(t, "vee-fs-7.7.0-ubuntu24-x86_64.bin", out.Target.BinaryFilename)
	require.Empty(t, out.LocalPath)
}

func TestInstallUnsupportedPlatform(t *testing.T) {
	inst := &Installer{Locator: ctecompat.NewLocator("https://repo.example", nil, nil)}
	_, err := inst.Install(context.Background(), "Fedora Linux 40", "7.6.0")
	require.ErrorIs(t, err, ctecompat.ErrUnsupportedPlatform)
}

func TestInstallerFailure(t *testing.T) {
	const url = "https://repo.example/cte/bin/rh8/latest/vee-fs-7.6.0-rh8-x86_64.bin"
	inst := &Installer{
		Locator:     ctecompat.NewLocator("https://repo.example", nil, nil),
		Opener:      fakeOpener{url: "payload"},
		Runner:      &fakeRunner{err: fmt.Errorf("exit status 3")},
		DownloadDir: t.TempDir(),
		NoProgress:  true,
	}
	out, err := inst.Install(context.Background(), "CentOS Linux 8", "7.6.0")
	require.Error(t, err)
	require.NotNil(t, out)
	require.NotEmpty(t, out.LocalPath)
}
