package host

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeResult_String(t *testing.T) {
	tests := []struct {
		name string
		r    ProbeResult
		want string
	}{
		{"supported", ProbeResult{Supported: true}, "Yes"},
		{"unsupported", ProbeResult{Supported: false}, "No"},
		{"error", ProbeResult{Error: errors.New("denied")}, "unknown (denied)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_JSON(t *testing.T) {
	info := &Info{
		Hostname:       "db01",
		Root:           ProbeResult{Supported: true},
		ManagementPort: ProbeResult{Error: errors.New(`dial "cm": refused`)},
	}
	bs, err := json.Marshal(info)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(bs, &decoded))
	require.Equal(t, "Yes", decoded["root"])
	require.Equal(t, `unknown (dial "cm": refused)`, decoded["management_port"])
	require.NotContains(t, decoded, "users")
}

func TestInfo_PrimaryIP(t *testing.T) {
	if got := (&Info{}).PrimaryIP(); got != "Unknown" {
		t.Errorf("PrimaryIP() = %q, want Unknown", got)
	}
	info := &Info{IPAddresses: []string{"10.0.0.5", "192.168.1.2"}}
	if got := info.PrimaryIP(); got != "10.0.0.5" {
		t.Errorf("PrimaryIP() = %q, want 10.0.0.5", got)
	}
}

func TestInfo_Platform(t *testing.T) {
	info := &Info{OS: "Rocky Linux 9.2 (Blue Onyx)", PrettyName: "Rocky Linux 9.2 (Blue Onyx)"}
	if got := info.Platform(); got != info.PrettyName {
		t.Errorf("Platform() = %q, want PRETTY_NAME", got)
	}
	info.PrettyName = ""
	if got := info.Platform(); got != info.OS {
		t.Errorf("Platform() = %q, want OS fallback", got)
	}
}

func TestRequirement_String(t *testing.T) {
	for _, r := range RequirementValues() {
		if name := r.String(); strings.HasPrefix(name, "Requirement(") {
			t.Errorf("Requirement %d has no name", int(r))
		}
	}
	require.Equal(t, []string{"root", "cap-sys-admin", "cm-port-443", "ldt"}, RequirementNames())
	require.Equal(t, "Requirement(42)", Requirement(42).String())
}
