package ctecompat

import (
	"fmt"
	"strings"
)

// String returns a human-readable summary of the resolution.
func (r *Result) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Kernel: %s\n", r.Kernel.Raw)
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", r.Source)
	}
	b.WriteString("\n")

	t := Format(r)
	if len(t.Rows) == 0 {
		b.WriteString("No matching entries.\n")
	} else {
		writeTable(&b, t)
	}
	b.WriteString("\n")

	for _, f := range r.Failures {
		fmt.Fprintf(&b, "Source failed: %s\n", f)
	}
	fmt.Fprintf(&b, "Verdict: %s\n", r.Verdict)
	if r.Recommended != "" {
		fmt.Fprintf(&b, "Recommended CTE: %s\n", r.Recommended)
	}
	fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	return b.String()
}

func writeTable(b *strings.Builder, t Table) {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			widths[i] = max(widths[i], len(c))
		}
	}
	writeRow(b, t.Headers, widths)
	for _, row := range t.Rows {
		writeRow(b, row, widths)
	}
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(c)
			continue
		}
		fmt.Fprintf(b, "%-*s", widths[i], c)
	}
	b.WriteString("\n")
}
