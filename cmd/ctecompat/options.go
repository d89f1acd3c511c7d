package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/leodido/ctecompat/internal/host"
)

// sourceKind selects the primary compatibility entry source.
type sourceKind enumflag.Flag

const (
	sourceJSON sourceKind = iota
	sourceHTML
)

var sourceIdentifiers = map[sourceKind][]string{
	sourceJSON: {"json"},
	sourceHTML: {"html"},
}

func (s sourceKind) String() string {
	if ids, ok := sourceIdentifiers[s]; ok {
		return ids[0]
	}
	return fmt.Sprintf("sourceKind(%d)", s)
}

func parseSourceKind(input string) (sourceKind, error) {
	var s sourceKind
	v := enumflag.New(&s, "source", sourceIdentifiers, enumflag.EnumCaseInsensitive)
	if err := v.Set(strings.TrimSpace(input)); err != nil {
		return sourceJSON, fmt.Errorf("unknown source: %q (available: json, html)", input)
	}
	return s, nil
}

// kernelList collects repeated or comma-separated --kernel values.
type kernelList []string

func (k *kernelList) String() string { return strings.Join(*k, ",") }

func (k *kernelList) Set(input string) error {
	*k = append(*k, parseKernelList(input)...)
	return nil
}

func (k *kernelList) Type() string { return "kernel" }

func parseKernelList(input string) kernelList {
	var out kernelList
	for _, part := range strings.Split(input, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hostRequirements collects --require values.
type hostRequirements []host.Requirement

var requirementIdentifierMap = func() map[host.Requirement][]string {
	ids := make(map[host.Requirement][]string, len(host.RequirementValues()))
	for _, r := range host.RequirementValues() {
		ids[r] = []string{r.String()}
	}
	return ids
}()

func (r *hostRequirements) String() string {
	names := make([]string, 0, len(*r))
	for _, req := range *r {
		names = append(names, req.String())
	}
	return strings.Join(names, ",")
}

func (r *hostRequirements) Set(input string) error {
	reqs, err := parseHostRequirements(input)
	if err != nil {
		return err
	}
	*r = append(*r, reqs...)
	return nil
}

func (r *hostRequirements) Type() string { return "requirement" }

func parseHostRequirements(input string) (hostRequirements, error) {
	if strings.TrimSpace(input) == "" {
		return hostRequirements{}, nil
	}

	parts := strings.Split(input, ",")
	reqs := make(hostRequirements, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var req host.Requirement
		v := enumflag.New(&req, "host.Requirement", requirementIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := v.Set(name); err != nil {
			return nil, fmt.Errorf("unknown requirement: %q (available: %s)", name, strings.Join(host.RequirementNames(), ", "))
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// completeRequirements completes comma-separated requirement names,
// skipping the ones already typed.
func completeRequirements(toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}

	var selected []string
	for _, s := range strings.Split(prefix, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			selected = append(selected, s)
		}
	}

	var out []string
	for _, name := range host.RequirementNames() {
		if slices.Contains(selected, name) {
			continue
		}
		if strings.HasPrefix(name, strings.ToLower(current)) {
			out = append(out, prefix+name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
