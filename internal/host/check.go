package host

// Check validates the requirements against probed host facts and returns a
// *[RequirementError] for the first unmet requirement, or nil if all are met.
func Check(info *Info, required ...Requirement) error {
	for _, r := range required {
		result, known := info.Result(r)
		if !known {
			return &RequirementError{Requirement: r.String(), Reason: "unknown requirement"}
		}
		if !result.Supported {
			return &RequirementError{
				Requirement: r.String(),
				Reason:      info.Diagnose(r),
				Err:         result.Error,
			}
		}
	}
	return nil
}

// Result maps a [Requirement] to its corresponding [ProbeResult] in Info.
// Returns false as the second value if the requirement is unknown.
func (i *Info) Result(r Requirement) (ProbeResult, bool) {
	switch r {
	case RequireRoot:
		return i.Root, true
	case RequireCapSysAdmin:
		return i.CapSysAdmin, true
	case RequireManagementPort:
		return i.ManagementPort, true
	case RequireLDT:
		return i.LDT, true
	default:
		return ProbeResult{}, false
	}
}

// Diagnose returns a reason explaining why a requirement is not met and
// what the operator can do about it.
func (i *Info) Diagnose(r Requirement) string {
	switch r {
	case RequireRoot:
		return "not running as root; re-run with sudo"
	case RequireCapSysAdmin:
		return "missing CAP_SYS_ADMIN; the agent installer loads kernel modules"
	case RequireManagementPort:
		if i.ManagementServer == "" {
			return "no management server configured; set --cm-host"
		}
		return "TCP 443 to " + i.ManagementServer + " is closed; open the firewall towards the CipherTrust Manager"
	case RequireLDT:
		return "kernel " + i.KernelRelease + " is older than 4.x; Live Data Transformation is not available"
	}

	result, known := i.Result(r)
	if known && result.Error != nil {
		return result.Error.Error()
	}
	return "not satisfied"
}
