package ctecompat

// Report column headers.
const (
	HeaderOS            = "OS"
	HeaderKernel        = "Kernel"
	HeaderStart         = "CTE Start"
	HeaderEnd           = "CTE End"
	HeaderCompatibility = "Compatibility"
	HeaderSupport       = "Support Status"
)

// Table is a rendering-agnostic tabular report.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Summary is the one-line outcome of a resolution.
type Summary struct {
	Compatible bool   `json:"compatible"`
	Verdict    string `json:"verdict"`
	Reason     string `json:"reason"`
}

// Format renders the matches of res as a table, in match order.
// The support column is present only when an overlay was applied or an
// entry carries its own status.
func Format(res *Result) Table {
	t := Table{
		Headers: []string{HeaderOS, HeaderKernel, HeaderStart, HeaderEnd, HeaderCompatibility},
		Rows:    [][]string{},
	}
	if res == nil {
		return t
	}
	withSupport := res.Overlay
	for _, m := range res.Matches {
		if m.Status != "" {
			withSupport = true
			break
		}
	}
	if withSupport {
		t.Headers = append(t.Headers, HeaderSupport)
	}
	for _, m := range res.Matches {
		row := []string{m.OS, m.Kernel, m.Start, m.End, m.Compatibility}
		if withSupport {
			row = append(row, m.Support)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Summarize returns the compatibility summary of res.
func Summarize(res *Result) Summary {
	if res == nil {
		return Summary{Verdict: VerdictUnknown.String(), Reason: ReasonNoData}
	}
	return Summary{
		Compatible: res.Compatible(),
		Verdict:    res.Verdict.String(),
		Reason:     res.Reason,
	}
}
