package host

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOSRelease(t *testing.T) {
	input := `# comment
NAME="Rocky Linux"
VERSION="9.2 (Blue Onyx)"
ID=rocky
PRETTY_NAME='Rocky Linux 9.2 (Blue Onyx)'

garbage line
`
	got, err := parseOSRelease(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseOSRelease() error = %v", err)
	}
	want := OSRelease{
		"NAME":        "Rocky Linux",
		"VERSION":     "9.2 (Blue Onyx)",
		"ID":          "rocky",
		"PRETTY_NAME": "Rocky Linux 9.2 (Blue Onyx)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseOSRelease() mismatch (-want +got):\n%s", diff)
	}
	if got.Description() != "Rocky Linux 9.2 (Blue Onyx)" {
		t.Errorf("Description() = %q", got.Description())
	}
	if (OSRelease{"NAME": "Alpine Linux"}).Description() != "Alpine Linux" {
		t.Error("Description() without VERSION should have no trailing space")
	}
}

func TestReadOSRelease_Missing(t *testing.T) {
	if _, err := readOSRelease(filepath.Join(t.TempDir(), "os-release")); err == nil {
		t.Error("readOSRelease() on a missing file expected error")
	}
}

func TestParseHostname(t *testing.T) {
	tests := []struct {
		name  string
		hosts string
		want  string
	}{
		{"first non-loopback", "127.0.0.1 localhost\n::1 localhost6\n10.0.0.5 db01.example.com db01\n", "localhost6"},
		{"comments skipped", "# 10.0.0.9 old\n127.0.0.1 localhost\n10.0.0.5 db01\n", "db01"},
		{"only loopback", "127.0.0.1 localhost\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHostname(strings.NewReader(tt.hosts))
			if err != nil {
				t.Fatalf("parseHostname() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseHostname() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUsers(t *testing.T) {
	passwd := "root:x:0:0:root:/root:/bin/bash\n\nmysql:x:27:27:MySQL Server:/var/lib/mysql:/sbin/nologin\n"
	got, err := parseUsers(strings.NewReader(passwd))
	if err != nil {
		t.Fatalf("parseUsers() error = %v", err)
	}
	if diff := cmp.Diff([]string{"root", "mysql"}, got); diff != "" {
		t.Errorf("parseUsers() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseProcesses(t *testing.T) {
	out := "    PID COMMAND\n      1 systemd\n   1042 mysqld\n   2001 postgres\n\n"
	want := []Process{{PID: "1", Comm: "systemd"}, {PID: "1042", Comm: "mysqld"}, {PID: "2001", Comm: "postgres"}}
	if diff := cmp.Diff(want, parseProcesses(out)); diff != "" {
		t.Errorf("parseProcesses() mismatch (-want +got):\n%s", diff)
	}
}

const ssOutput = `State  Recv-Q Send-Q Local Address:Port  Peer Address:Port Process
LISTEN 0      151          0.0.0.0:3306       0.0.0.0:*     users:(("mysqld",pid=1042,fd=23))
LISTEN 0      70                 *:33060            *:*     users:(("mysqld",pid=1042,fd=21))
LISTEN 0      244        127.0.0.1:5432       0.0.0.0:*     users:(("postgres",pid=2001,fd=6))
LISTEN 0      128          0.0.0.0:22         0.0.0.0:*     users:(("sshd",pid=800,fd=3))
`

func TestParseListeners(t *testing.T) {
	want := []Listener{
		{Port: "3306", PID: "1042"},
		{Port: "33060", PID: "1042"},
		{Port: "5432", PID: "2001"},
		{Port: "22", PID: "800"},
	}
	if diff := cmp.Diff(want, parseListeners(ssOutput)); diff != "" {
		t.Errorf("parseListeners() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadedModules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules")
	content := "secfs2 1327104 3 - Live 0x0000000000000000 (OE)\next4 999424 1 - Live 0x0000000000000000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadedModules(path)
	if err != nil {
		t.Fatalf("LoadedModules() error = %v", err)
	}
	if diff := cmp.Diff([]string{"secfs2", "ext4"}, got); diff != "" {
		t.Errorf("LoadedModules() mismatch (-want +got):\n%s", diff)
	}
	if _, err := LoadedModules(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("LoadedModules() on a missing file expected error")
	}
}
