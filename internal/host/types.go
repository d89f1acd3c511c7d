package host

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned by probes on non-Linux platforms.
var ErrUnsupportedPlatform = errors.New("host probing requires Linux")

// ProbeResult represents the outcome of a single host probe.
type ProbeResult struct {
	// Supported indicates whether the property holds.
	Supported bool
	// Error is non-nil if the probe itself failed (not just negative).
	Error error
}

// MarshalJSON renders the result as its [ProbeResult.String] form.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r ProbeResult) String() string {
	switch {
	case r.Error != nil:
		return fmt.Sprintf("unknown (%v)", r.Error)
	case r.Supported:
		return "Yes"
	default:
		return "No"
	}
}

// Database is a running database engine.
type Database struct {
	Engine  string   `json:"engine"`
	Version string   `json:"version"`
	Ports   []string `json:"ports"`
	Service string   `json:"service"`
}

// Info holds the host facts relevant to an agent installation.
type Info struct {
	Hostname    string   `json:"hostname"`
	IPAddresses []string `json:"ip_addresses"`
	// OS is "NAME VERSION" from os-release.
	OS string `json:"os"`
	// PrettyName is PRETTY_NAME from os-release, used for platform mapping.
	PrettyName    string `json:"pretty_name"`
	Architecture  string `json:"architecture"`
	KernelRelease string `json:"kernel_release"`

	Root        ProbeResult `json:"root"`
	CapSysAdmin ProbeResult `json:"cap_sys_admin"`
	// ManagementPort is TCP 443 reachability of the management server.
	ManagementPort   ProbeResult `json:"management_port"`
	ManagementServer string      `json:"management_server,omitempty"`
	// LDT holds when the kernel supports Live Data Transformation (4.x+).
	LDT ProbeResult `json:"ldt"`

	Users         []string   `json:"users,omitempty"`
	EncryptionDir string     `json:"encryption_dir,omitempty"`
	Databases     []Database `json:"databases,omitempty"`
}

// PrimaryIP returns the first non-loopback address, or "Unknown".
func (i *Info) PrimaryIP() string {
	if len(i.IPAddresses) == 0 {
		return "Unknown"
	}
	return i.IPAddresses[0]
}

// Platform returns the best OS descriptor for installer platform mapping.
func (i *Info) Platform() string {
	if i.PrettyName != "" {
		return i.PrettyName
	}
	return i.OS
}

// RequirementError represents an unmet installation prerequisite.
type RequirementError struct {
	Requirement string
	Reason      string
	Err         error
}

func (e *RequirementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("requirement %s: %s: %v", e.Requirement, e.Reason, e.Err)
	}
	return fmt.Sprintf("requirement %s: %s", e.Requirement, e.Reason)
}

func (e *RequirementError) Unwrap() error {
	return e.Err
}

// Requirement is a host prerequisite that can be checked via [Check].
type Requirement int

const (
	// RequireRoot requires an effective UID of 0.
	RequireRoot Requirement = iota
	// RequireCapSysAdmin requires CAP_SYS_ADMIN (kernel module loading).
	RequireCapSysAdmin
	// RequireManagementPort requires TCP 443 to the management server.
	RequireManagementPort
	// RequireLDT requires a kernel supporting Live Data Transformation.
	RequireLDT
)

var requirementNames = map[Requirement]string{
	RequireRoot:           "root",
	RequireCapSysAdmin:    "cap-sys-admin",
	RequireManagementPort: "cm-port-443",
	RequireLDT:            "ldt",
}

func (r Requirement) String() string {
	if name, ok := requirementNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Requirement(%d)", r)
}

// RequirementValues returns every known requirement in declaration order.
func RequirementValues() []Requirement {
	return []Requirement{RequireRoot, RequireCapSysAdmin, RequireManagementPort, RequireLDT}
}

// RequirementNames returns the names of [RequirementValues].
func RequirementNames() []string {
	values := RequirementValues()
	names := make([]string, 0, len(values))
	for _, r := range values {
		names = append(names, r.String())
	}
	return names
}
