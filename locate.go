package ctecompat

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// platformRule maps OS descriptor substrings to a platform code.
type platformRule struct {
	code    string
	matches []string
}

// platformRules are tested in order: specific releases before the generic
// Ubuntu fallback.
var platformRules = []platformRule{
	{code: "rh8", matches: []string{"rhel 8", "centos 8", "red hat enterprise linux 8", "centos linux 8", "centos stream 8", "rocky linux 8", "almalinux 8"}},
	{code: "rh9", matches: []string{"rhel 9", "red hat enterprise linux 9", "centos stream 9", "rocky linux 9", "almalinux 9"}},
	{code: "ubuntu24", matches: []string{"ubuntu 24"}},
	{code: "ubuntu22", matches: []string{"ubuntu 22"}},
	{code: "oel10", matches: []string{"oracle linux 10", "oracle linux server 10", "oel10"}},
	{code: "ubuntu22", matches: []string{"ubuntu"}},
}

// PlatformCodes lists the known platform codes.
func PlatformCodes() []string {
	seen := map[string]struct{}{}
	var codes []string
	for _, r := range platformRules {
		if _, ok := seen[r.code]; ok {
			continue
		}
		seen[r.code] = struct{}{}
		codes = append(codes, r.code)
	}
	return codes
}

// PlatformCode maps an OS descriptor (e.g. "Red Hat Enterprise Linux 9.2")
// to a platform code. It returns a *[UnsupportedPlatformError] when no rule
// matches.
func PlatformCode(osDescriptor string) (string, error) {
	l := strings.ToLower(strings.Join(strings.Fields(osDescriptor), " "))
	for _, r := range platformRules {
		for _, m := range r.matches {
			if strings.Contains(l, m) {
				return r.code, nil
			}
		}
	}
	return "", &UnsupportedPlatformError{OS: osDescriptor}
}

// BinaryFilename returns the installer filename for an agent version and
// platform code.
func BinaryFilename(version, code string) string {
	return fmt.Sprintf("vee-fs-%s-%s-x86_64.bin", version, code)
}

// Locator computes installer download targets in a repository.
type Locator struct {
	// RepoBase is the repository root URL.
	RepoBase string
	// Fetcher retrieves directory listings for [Locator.Discover].
	Fetcher Fetcher
	Log     logrus.FieldLogger
}

// NewLocator creates a Locator for the repository at repoBase.
func NewLocator(repoBase string, f Fetcher, log logrus.FieldLogger) *Locator {
	return &Locator{RepoBase: repoBase, Fetcher: f, Log: loggerOrDiscard(log)}
}

// IndexURL returns the "latest" directory of a platform.
func (l *Locator) IndexURL(code string) string {
	return fmt.Sprintf("%s/cte/bin/%s/latest/", strings.TrimRight(l.RepoBase, "/"), code)
}

// Locate computes the target for an OS descriptor and agent version.
// It performs no I/O.
func (l *Locator) Locate(osDescriptor, version string) (*ArtifactTarget, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("locate artifact: empty agent version")
	}
	code, err := PlatformCode(osDescriptor)
	if err != nil {
		return nil, err
	}
	name := BinaryFilename(version, code)
	target := &ArtifactTarget{
		PlatformCode:   code,
		BinaryFilename: name,
		DownloadURL:    l.IndexURL(code) + name,
	}
	loggerOrDiscard(l.Log).WithFields(logrus.Fields{
		"os":       osDescriptor,
		"platform": code,
		"url":      target.DownloadURL,
	}).Debug("located installer")
	return target, nil
}

var binaryHrefRe = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+\.bin)["']`)

// Discover fetches the "latest" listing of a platform and returns the first
// installer binary it links to. It returns a *[ArtifactNotFoundError] when
// the listing has none.
func (l *Locator) Discover(ctx context.Context, code string) (*ArtifactTarget, error) {
	index := l.IndexURL(code)
	data, err := fetch(ctx, l.Fetcher, "repository", index)
	if err != nil {
		return nil, err
	}
	target, err := ParseListing(index, code, data)
	if err != nil {
		return nil, err
	}
	loggerOrDiscard(l.Log).WithFields(logrus.Fields{
		"platform": code,
		"url":      target.DownloadURL,
	}).Debug("discovered installer")
	return target, nil
}

// ParseListing extracts the first installer link of a directory listing
// served at index.
func ParseListing(index, code string, listing []byte) (*ArtifactTarget, error) {
	m := binaryHrefRe.FindSubmatch(listing)
	if m == nil {
		return nil, &ArtifactNotFoundError{Platform: code, Location: index}
	}
	href := string(m[1])

	download := index + href
	if base, err := url.Parse(index); err == nil {
		if ref, err := url.Parse(href); err == nil {
			download = base.ResolveReference(ref).String()
		}
	}
	return &ArtifactTarget{
		PlatformCode:   code,
		BinaryFilename: path.Base(href),
		DownloadURL:    download,
	}, nil
}

var (
	tunnelURLRe = regexp.MustCompile(`https://[a-z0-9-]+\.trycloudflare\.com`)
	anyURLRe    = regexp.MustCompile(`https?://[^\s'"<>]+`)
)

// ParseRepoURL extracts the active repository base from the published
// repository info file: a tunnel domain when present, else the first URL.
func ParseRepoURL(info string) (string, error) {
	if m := tunnelURLRe.FindString(info); m != "" {
		return strings.TrimRight(m, "/"), nil
	}
	if m := anyURLRe.FindString(info); m != "" {
		return strings.TrimRight(m, "/"), nil
	}
	return "", fmt.Errorf("no repository URL in info file")
}
