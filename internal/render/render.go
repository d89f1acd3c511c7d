// Package render draws resolution results and host facts for the console.
package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/leodido/ctecompat"
	"github.com/leodido/ctecompat/internal/host"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	keyStyle    = lipgloss.NewStyle().Bold(true)

	verdictStyles = map[ctecompat.Verdict]lipgloss.Style{
		ctecompat.VerdictCompatible:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		ctecompat.VerdictEndOfSupport: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		ctecompat.VerdictUnknown:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Table draws t with borders. An empty table draws only its header.
func Table(t ctecompat.Table) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// Result draws the matches table followed by the verdict lines.
func Result(res *ctecompat.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Kernel:"), res.Kernel.Raw)
	if res.Source != "" {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Source:"), res.Source)
	}
	t := ctecompat.Format(res)
	if len(t.Rows) > 0 {
		b.WriteString(Table(t))
		b.WriteString("\n")
	} else {
		b.WriteString("No matching entries.\n")
	}
	for _, f := range res.Failures {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Source failed:"), f)
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Verdict:"), verdictStyles[res.Verdict].Render(res.Verdict.String()))
	if res.Recommended != "" {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Recommended CTE:"), res.Recommended)
	}
	if res.Latest != "" && res.Latest != res.Recommended {
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Latest CTE:"), res.Latest)
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Reason:"), res.Reason)
	return b.String()
}

// Host draws the host facts as a two-column table.
func Host(info *host.Info) string {
	rows := [][]string{
		{"Hostname", info.Hostname},
		{"IP address", info.PrimaryIP()},
		{"OS", info.OS},
		{"Kernel", info.KernelRelease},
		{"Architecture", info.Architecture},
		{"Root", info.Root.String()},
		{"CAP_SYS_ADMIN", info.CapSysAdmin.String()},
		{"LDT", info.LDT.String()},
	}
	if info.ManagementServer != "" {
		rows = append(rows, []string{"Port 443 to " + info.ManagementServer, info.ManagementPort.String()})
	}
	if len(info.Users) > 0 {
		rows = append(rows, []string{"Users", strings.Join(info.Users, ", ")})
	}
	if info.EncryptionDir != "" {
		rows = append(rows, []string{"Encryption dir", info.EncryptionDir})
	}
	for _, db := range info.Databases {
		rows = append(rows, []string{db.Engine, fmt.Sprintf("%s (ports %s)", db.Version, strings.Join(db.Ports, ","))})
	}
	return Table(ctecompat.Table{Headers: []string{"Property", "Value"}, Rows: rows})
}
