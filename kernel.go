package ctecompat

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// archSuffixes are stripped from kernel strings before matching.
// Vendor data encodes kernels without the architecture.
var archSuffixes = []string{
	".x86_64",
	".aarch64",
	".amd64",
	".arm64",
	".i686",
	".ppc64le",
	".s390x",
	".noarch",
}

var (
	baseVersionRe = regexp.MustCompile(`^\d+(?:\.\d+){0,2}`)
	// el8_6, el9, fc40, amzn2, uek are the qualifiers seen in vendor data.
	qualifierRe = regexp.MustCompile(`\.((?:el|fc|amzn|uek|ol)[0-9][0-9a-z_]*)$`)
)

// KernelKey is a kernel release string in the forms used for matching.
type KernelKey struct {
	// Raw is the input, unchanged.
	Raw string `json:"raw"`
	// Normalized is Raw without architecture suffixes.
	Normalized string `json:"normalized"`
	// Base is the leading MAJOR.MINOR.PATCH, empty for malformed input.
	Base string `json:"base,omitempty"`
	// Qualifier is the trailing distro tag (e.g. "el8_6"), if any.
	Qualifier string `json:"qualifier,omitempty"`
}

func (k KernelKey) String() string {
	return k.Raw
}

// ParseKernel derives a [KernelKey] from a kernel release string
// (e.g. "4.18.0-372.41.1.el8_6.x86_64"). It never fails.
func ParseKernel(raw string) KernelKey {
	norm := NormalizeKernel(raw)
	key := KernelKey{
		Raw:        raw,
		Normalized: norm,
		Base:       baseVersionRe.FindString(norm),
	}
	if m := qualifierRe.FindStringSubmatch(norm); m != nil {
		key.Qualifier = m[1]
	}
	return key
}

// NormalizeKernel strips surrounding whitespace and architecture suffixes
// (case-insensitively) from a kernel release string.
// NormalizeKernel(NormalizeKernel(k)) == NormalizeKernel(k).
func NormalizeKernel(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		stripped := false
		lower := strings.ToLower(s)
		for _, suffix := range archSuffixes {
			if strings.HasSuffix(lower, suffix) {
				s = strings.TrimSpace(s[:len(s)-len(suffix)])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// MatchKernel reports whether the vendor pattern matches the kernel.
// The normalized pattern must be a prefix of the normalized kernel, and a
// pattern ending in a digit must not be followed by another digit.
func MatchKernel(pattern string, key KernelKey) bool {
	p := NormalizeKernel(pattern)
	if p == "" {
		return false
	}
	k := key.Normalized
	if !strings.HasPrefix(k, p) {
		return false
	}
	if len(k) == len(p) {
		return true
	}
	return !(isDigit(p[len(p)-1]) && isDigit(k[len(p)]))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// TruncateVersion keeps the first three dot-separated components of an
// agent version ("7.2.1.45" becomes "7.2.1").
func TruncateVersion(version string) string {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ".")
}

// compareVersions orders two agent versions on their first three components.
// Unparsable versions sort before parsable ones.
func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(TruncateVersion(a))
	vb, errB := semver.NewVersion(TruncateVersion(b))
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	default:
		return va.Compare(vb)
	}
}
