package host

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
)

// Default locations of the files the probes read.
const (
	defaultOSReleasePath = "/etc/os-release"
	defaultHostsPath     = "/etc/hosts"
	defaultPasswdPath    = "/etc/passwd"
	defaultModulesPath   = "/proc/modules"
)

// OSRelease holds parsed os-release fields.
type OSRelease map[string]string

// Description returns "NAME VERSION".
func (o OSRelease) Description() string {
	return strings.TrimSpace(o["NAME"] + " " + o["VERSION"])
}

// readOSRelease reads and parses an os-release file.
func readOSRelease(path string) (OSRelease, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseOSRelease(f)
}

// parseOSRelease parses KEY=value lines, stripping quotes.
func parseOSRelease(r io.Reader) (OSRelease, error) {
	out := make(OSRelease)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseHostname returns the name of the first hosts entry whose address is
// not 127.0.0.1. The agent registers with this name.
func parseHostname(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] == "127.0.0.1" {
			continue
		}
		return fields[1], nil
	}
	return "", scanner.Err()
}

// parseUsers returns the account names of a passwd file.
func parseUsers(r io.Reader) ([]string, error) {
	var users []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		users = append(users, name)
	}
	return users, scanner.Err()
}

// Process is one line of "ps -eo pid,comm".
type Process struct {
	PID  string
	Comm string
}

// parseProcesses parses "ps -eo pid,comm" output, skipping the header.
func parseProcesses(out string) []Process {
	var procs []Process
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		procs = append(procs, Process{PID: fields[0], Comm: fields[1]})
	}
	return procs
}

// Listener is a listening TCP socket owned by a process.
type Listener struct {
	Port string
	PID  string
}

var listenerRe = regexp.MustCompile(`LISTEN\s+\d+\s+\d+\s+.*:(\d+)\s+.*pid=(\d+),fd=\d+\)`)

// parseListeners parses "ss -ltnp" output.
func parseListeners(out string) []Listener {
	var ls []Listener
	for _, line := range strings.Split(out, "\n") {
		m := listenerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ls = append(ls, Listener{Port: m[1], PID: m[2]})
	}
	return ls
}

// parseModules returns the names of loaded kernel modules from /proc/modules.
func parseModules(r io.Reader) ([]string, error) {
	var mods []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		mods = append(mods, fields[0])
	}
	return mods, scanner.Err()
}

// LoadedModules reads the loaded kernel module names.
func LoadedModules(path string) ([]string, error) {
	if path == "" {
		path = defaultModulesPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseModules(f)
}
