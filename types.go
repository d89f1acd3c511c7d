package ctecompat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is one (OS family, kernel) record of a compatibility dataset.
type Entry struct {
	// OS identifies the OS family (e.g. "RHEL 8").
	OS string `json:"os"`
	// Kernel is the vendor kernel pattern, matched as a prefix.
	Kernel string `json:"kernel"`
	// Start is the first agent version supporting the kernel.
	Start string `json:"start"`
	// End is the last agent version supporting the kernel.
	// The sentinel "0" means the range is still open.
	End string `json:"end"`
	// Status is the lifecycle label published next to the entry, if any.
	// Only scraped tables carry it.
	Status string `json:"status,omitempty"`
}

// ActiveEnd is the End sentinel for a still active range.
const ActiveEnd = "0"

// Label returns the compatibility label of the entry. Any End other than
// [ActiveEnd] is reported verbatim, including an empty one.
func (e Entry) Label() string {
	if e.End == ActiveEnd {
		return "Active"
	}
	return "Supported until " + e.End
}

// SupportStatus maps a MAJOR.MINOR.PATCH agent version to its lifecycle label.
type SupportStatus map[string]string

// Lookup returns the label for version truncated to three components.
func (s SupportStatus) Lookup(version string) (string, bool) {
	if s == nil {
		return "", false
	}
	label, ok := s[TruncateVersion(version)]
	return label, ok
}

// Lifecycle classifies a support label.
type Lifecycle int

const (
	// LifecycleUnknown means the label could not be classified.
	LifecycleUnknown Lifecycle = iota
	// LifecycleActive means the version is actively supported.
	LifecycleActive
	// LifecycleSupported means the version is supported until a date.
	LifecycleSupported
	// LifecycleEndOfLife means the version reached end of support.
	LifecycleEndOfLife
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleActive:
		return "Active"
	case LifecycleSupported:
		return "Supported"
	case LifecycleEndOfLife:
		return "End-of-Life"
	default:
		return "Unknown"
	}
}

// Classify maps a free-text label to a [Lifecycle].
func Classify(label string) Lifecycle {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "unsupported"), strings.Contains(l, "not supported"), strings.Contains(l, "inactive"):
		return LifecycleEndOfLife
	case strings.Contains(l, "active"):
		return LifecycleActive
	case strings.Contains(l, "supported"):
		return LifecycleSupported
	case strings.Contains(l, "end"), strings.Contains(l, "deprecated"):
		return LifecycleEndOfLife
	default:
		return LifecycleUnknown
	}
}

// Dataset is what a [Source] loads: entries, a status overlay, or both.
type Dataset struct {
	Entries []Entry
	Status  SupportStatus
}

// Verdict is the tri-state outcome of a resolution.
type Verdict int

const (
	// VerdictUnknown means compatibility could not be established.
	VerdictUnknown Verdict = iota
	// VerdictCompatible means at least one match indicates active support.
	VerdictCompatible
	// VerdictEndOfSupport means the matched agent range is out of support.
	VerdictEndOfSupport
)

var verdictNames = map[Verdict]string{
	VerdictUnknown:      "Unknown",
	VerdictCompatible:   "Compatible",
	VerdictEndOfSupport: "EndOfSupport",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Match is a matched entry together with its derived labels.
type Match struct {
	Entry
	// Compatibility is the label derived from the entry range.
	Compatibility string `json:"compatibility"`
	// Support is the overlay label, or the table status, or "Unknown".
	Support string `json:"support"`
}

// SourceFailure records a source that could not be loaded.
type SourceFailure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (f SourceFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// MarshalJSON implements json.Marshaler.
func (f SourceFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Source string `json:"source"`
		Error  string `json:"error"`
	}{f.Source, msg})
}

// Result is the outcome of resolving one kernel.
type Result struct {
	Kernel KernelKey `json:"kernel"`
	// Matches holds every matching entry in source order. Never nil.
	Matches []Match `json:"matches"`
	// Recommended is the start version of the first match.
	Recommended string `json:"recommended,omitempty"`
	// Latest is the highest start version among all matches.
	Latest  string  `json:"latest,omitempty"`
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
	// Overlay reports whether a support status overlay was applied.
	Overlay bool `json:"overlay"`
	// Source names the entry source the matches came from.
	Source   string          `json:"source,omitempty"`
	Failures []SourceFailure `json:"failures,omitempty"`
}

// Compatible reports whether the verdict is [VerdictCompatible].
func (r *Result) Compatible() bool {
	return r != nil && r.Verdict == VerdictCompatible
}

// ArtifactTarget is the installer binary to fetch for a platform.
type ArtifactTarget struct {
	PlatformCode   string `json:"platform_code"`
	BinaryFilename string `json:"binary_filename"`
	DownloadURL    string `json:"download_url"`
}
