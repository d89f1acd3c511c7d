//go:build !linux

package host

import (
	"context"
	"time"
)

// probeConfig holds the configuration for a probe operation.
// On non-Linux platforms this is a no-op placeholder.
type probeConfig struct{}

// ProbeOption configures what [ProbeWith] collects.
type ProbeOption func(*probeConfig)

// DefaultPortTimeout bounds the management server reachability check.
const DefaultPortTimeout = 3 * time.Second

func ProbeWith(_ context.Context, _ ...ProbeOption) (*Info, error) {
	return nil, ErrUnsupportedPlatform
}

func Probe(_ context.Context, _ ...ProbeOption) (*Info, error) {
	return nil, ErrUnsupportedPlatform
}

func ResetCache() {}

func KernelRelease() (string, error) {
	return "", ErrUnsupportedPlatform
}

func WithManagementServer(_ string) ProbeOption   { return func(*probeConfig) {} }
func WithPortTimeout(_ time.Duration) ProbeOption { return func(*probeConfig) {} }
func WithUsers() ProbeOption                      { return func(*probeConfig) {} }
func WithNetwork() ProbeOption                    { return func(*probeConfig) {} }
func WithDatabases(_ Runner) ProbeOption          { return func(*probeConfig) {} }
func WithEncryptionDir(_ string) ProbeOption      { return func(*probeConfig) {} }
func WithPaths(_, _, _ string) ProbeOption        { return func(*probeConfig) {} }
func WithAll(_ string, _ Runner) ProbeOption      { return func(*probeConfig) {} }
