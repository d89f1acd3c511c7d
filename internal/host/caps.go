//go:build linux

package host

import (
	"github.com/cilium/ebpf/features"
	"golang.org/x/sys/unix"
)

// capSysAdmin matches CAP_SYS_ADMIN in <linux/capability.h>.
const capSysAdmin = 21

// probeRoot checks whether the effective UID is 0.
func probeRoot() ProbeResult {
	return ProbeResult{Supported: unix.Geteuid() == 0}
}

// probeCapability checks if the specified capability is in the bounding set
// using prctl(PR_CAPBSET_READ).
func probeCapability(cap uintptr) ProbeResult {
	ret, err := unix.PrctlRetInt(unix.PR_CAPBSET_READ, cap, 0, 0, 0)
	if err != nil {
		return ProbeResult{Supported: false, Error: err}
	}
	return ProbeResult{Supported: ret == 1}
}

// ldtMinMajor is the first kernel major version with LDT support.
const ldtMinMajor = 4

// probeLDT checks the running kernel version against the LDT minimum.
// The version comes from the vDSO LINUX_VERSION_CODE, which distributions
// keep stable across their own release suffixes.
func probeLDT() ProbeResult {
	code, err := features.LinuxVersionCode()
	if err != nil {
		return ProbeResult{Supported: false, Error: err}
	}
	return ProbeResult{Supported: ldtApplicable(code)}
}

// ldtApplicable decodes a KERNEL_VERSION(a,b,c) code.
func ldtApplicable(code uint32) bool {
	return code>>16 >= ldtMinMajor
}

// KernelRelease returns the kernel release string (e.g., "4.18.0-372.41.1.el8_6.x86_64").
func KernelRelease() (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uname.Release[:]), nil
}

// machine returns the hardware name (e.g., "x86_64").
func machine() string {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uname.Machine[:])
}
