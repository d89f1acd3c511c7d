//go:build linux

package host

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// Cache for Probe() results. Host facts are stable during one run.
var (
	cachedInfo *Info
	cacheMu    sync.Mutex
	cacheErr   error
)

// DefaultPortTimeout bounds the management server reachability check.
const DefaultPortTimeout = 3 * time.Second

// probeConfig holds the configuration for a probe operation.
type probeConfig struct {
	managementServer string
	portTimeout      time.Duration
	users            bool
	network          bool
	databases        Runner
	encryptionDir    string

	// custom file locations (for testing)
	osReleasePath string
	hostsPath     string
	passwdPath    string
}

// ProbeOption configures what host facts to probe.
type ProbeOption func(*probeConfig)

// WithManagementServer probes TCP 443 reachability of the CipherTrust Manager.
func WithManagementServer(host string) ProbeOption {
	return func(c *probeConfig) {
		c.managementServer = host
	}
}

// WithPortTimeout overrides [DefaultPortTimeout]. Non-positive values keep
// the default.
func WithPortTimeout(d time.Duration) ProbeOption {
	return func(c *probeConfig) {
		if d > 0 {
			c.portTimeout = d
		}
	}
}

// WithUsers lists the local accounts.
func WithUsers() ProbeOption {
	return func(c *probeConfig) {
		c.users = true
	}
}

// WithNetwork lists the non-loopback IPv4 addresses.
func WithNetwork() ProbeOption {
	return func(c *probeConfig) {
		c.network = true
	}
}

// WithDatabases detects running database engines using run.
func WithDatabases(run Runner) ProbeOption {
	return func(c *probeConfig) {
		c.databases = run
	}
}

// WithEncryptionDir records the directory intended for encryption.
func WithEncryptionDir(dir string) ProbeOption {
	return func(c *probeConfig) {
		c.encryptionDir = dir
	}
}

// WithPaths sets custom os-release, hosts and passwd locations.
// This is primarily for testing; empty values keep the defaults.
func WithPaths(osRelease, hosts, passwd string) ProbeOption {
	return func(c *probeConfig) {
		if osRelease != "" {
			c.osReleasePath = osRelease
		}
		if hosts != "" {
			c.hostsPath = hosts
		}
		if passwd != "" {
			c.passwdPath = passwd
		}
	}
}

// WithAll enables every probe. run may be nil to skip database detection.
func WithAll(managementServer string, run Runner) ProbeOption {
	return func(c *probeConfig) {
		c.managementServer = managementServer
		c.users = true
		c.network = true
		c.databases = run
	}
}

// ProbeWith collects host facts based on the provided options.
// OS, kernel, architecture, privileges and LDT applicability are always
// probed (all cheap); the rest is opt-in.
func ProbeWith(ctx context.Context, opts ...ProbeOption) (*Info, error) {
	cfg := &probeConfig{
		portTimeout:   DefaultPortTimeout,
		osReleasePath: defaultOSReleasePath,
		hostsPath:     defaultHostsPath,
		passwdPath:    defaultPasswdPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	info := &Info{
		Hostname:         probeHostname(cfg.hostsPath),
		Architecture:     machine(),
		Root:             probeRoot(),
		CapSysAdmin:      probeCapability(capSysAdmin),
		LDT:              probeLDT(),
		EncryptionDir:    cfg.encryptionDir,
		ManagementServer: cfg.managementServer,
	}

	release, err := KernelRelease()
	if err != nil {
		return nil, err
	}
	info.KernelRelease = release

	// os-release is optional: minimal containers ship without it.
	if osr, err := readOSRelease(cfg.osReleasePath); err == nil {
		info.OS = osr.Description()
		info.PrettyName = osr["PRETTY_NAME"]
	}
	if info.OS == "" {
		info.OS = "Linux " + release
	}

	if cfg.network {
		info.IPAddresses = probeIPv4Addresses()
	}

	if cfg.managementServer != "" {
		info.ManagementPort = probePort(ctx, cfg.managementServer, 443, cfg.portTimeout)
	} else {
		info.ManagementPort = ProbeResult{Supported: false}
	}

	if cfg.users {
		if f, err := os.Open(cfg.passwdPath); err == nil {
			info.Users, _ = parseUsers(f)
			f.Close()
		}
	}

	if cfg.databases != nil {
		info.Databases = DetectDatabases(ctx, cfg.databases)
	}

	return info, nil
}

// Probe collects host facts like [ProbeWith] and caches the result.
// Subsequent calls return the cached result without re-probing, whatever
// their options, until [ResetCache].
func Probe(ctx context.Context, opts ...ProbeOption) (*Info, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cachedInfo != nil || cacheErr != nil {
		return cachedInfo, cacheErr
	}
	cachedInfo, cacheErr = ProbeWith(ctx, opts...)
	return cachedInfo, cacheErr
}

// ResetCache clears cached probe results, forcing the next [Probe] call to re-probe.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cachedInfo = nil
	cacheErr = nil
}

// probeHostname prefers the first non-loopback hosts entry, falling back
// to the kernel hostname.
func probeHostname(hostsPath string) string {
	if f, err := os.Open(hostsPath); err == nil {
		name, _ := parseHostname(f)
		f.Close()
		if name != "" {
			return name
		}
	}
	name, _ := os.Hostname()
	return name
}

// probeIPv4Addresses lists the IPv4 addresses of interfaces that are up,
// excluding loopback.
func probeIPv4Addresses() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ips = append(ips, ip.String())
		}
	}
	return ips
}

// probePort checks that a TCP connection to host:port can be established.
func probePort(ctx context.Context, host string, port int, timeout time.Duration) ProbeResult {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return ProbeResult{Supported: false}
	}
	conn.Close()
	return ProbeResult{Supported: true}
}
