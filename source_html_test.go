package ctecompat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const samplePortal = `<!doctype html>
<html><body>
<table class="nav"><tr><td>Home</td></tr></table>
<table class="table portal-table">
  <thead><tr><th>Operating System</th><th>Kernel Version</th><th>CTE Start</th><th>CTE End</th><th>Support Status</th></tr></thead>
  <tbody>
    <tr><td>RHEL 8</td><td> 4.18.0-372 </td><td>7.2.1</td><td>0</td><td>Active</td></tr>
    <tr><td>RHEL 8</td><td>4.18.0-305</td><td>7.0.0</td><td>7.3.0</td><td>End of Support</td></tr>
    <tr><td colspan="5"></td></tr>
  </tbody>
</table>
</body></html>`

func TestParseHTMLTable(t *testing.T) {
	got, err := ParseHTMLTable([]byte(samplePortal), DefaultTableClass)
	if err != nil {
		t.Fatalf("ParseHTMLTable() error = %v", err)
	}
	want := []Entry{
		{OS: "RHEL 8", Kernel: "4.18.0-372", Start: "7.2.1", End: "0", Status: "Active"},
		{OS: "RHEL 8", Kernel: "4.18.0-305", Start: "7.0.0", End: "7.3.0", Status: "End of Support"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseHTMLTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHTMLTable_FallsBackToFirstTable(t *testing.T) {
	doc := `<table><tr><th>Kernel</th><th>Min CTE Version</th><th>Max CTE Version</th></tr>
<tr><td>5.14.0-284</td><td>7.4.0</td><td>0</td></tr></table>`
	got, err := ParseHTMLTable([]byte(doc), DefaultTableClass)
	if err != nil {
		t.Fatalf("ParseHTMLTable() error = %v", err)
	}
	want := []Entry{{Kernel: "5.14.0-284", Start: "7.4.0", End: "0"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseHTMLTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHTMLTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"react shell", `<html><body><div id="root"></div><script src="/main.js"></script></body></html>`, ErrDynamicContent},
		{"angular shell", `<html><body><app-root></app-root></body></html>`, ErrDynamicContent},
		{"vue shell", `<html><body><div data-v-app></div></body></html>`, ErrDynamicContent},
		{"static page without table", `<html><body><p>Maintenance</p></body></html>`, ErrParse},
		{"header only", `<table class="portal-table"><tr><th>Kernel</th></tr></table>`, ErrParse},
		{"no kernel column", `<table class="portal-table"><tr><th>OS</th><th>Start</th></tr><tr><td>RHEL 8</td><td>7.2.1</td></tr></table>`, ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHTMLTable([]byte(tt.doc), DefaultTableClass)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseHTMLTable() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseHTMLTable_DynamicContentMarker(t *testing.T) {
	_, err := ParseHTMLTable([]byte(`<div id="__next"></div>`), "")
	var de *DynamicContentError
	if !errors.As(err, &de) {
		t.Fatalf("ParseHTMLTable() error = %v, want *DynamicContentError", err)
	}
	if de.Marker != `<div id="__next">` {
		t.Errorf("Marker = %q, want %q", de.Marker, `<div id="__next">`)
	}
}

func TestInferColumns(t *testing.T) {
	tests := []struct {
		header []string
		want   columns
	}{
		{
			header: []string{"OS", "Kernel", "CTE Start", "CTE End", "Status"},
			want:   columns{os: 0, kernel: 1, start: 2, end: 3, status: 4},
		},
		{
			header: []string{"Kernel Release", "Agent Version"},
			want:   columns{os: -1, kernel: 0, start: 1, end: -1, status: -1},
		},
		{
			header: []string{"Distribution", "Supported From", "Supported Until", "Kernel"},
			want:   columns{os: 0, kernel: 3, start: 1, end: 2, status: -1},
		},
		{
			header: []string{"OS Vendor", "Extended Support", "Kernel", "CTE Start", "CTE End"},
			want:   columns{os: 0, kernel: 2, start: 3, end: 4, status: -1},
		},
		{
			header: []string{"Operating System", "Kernel (min)", "Agent", "Appendix"},
			want:   columns{os: 0, kernel: 1, start: -1, end: -1, status: -1},
		},
	}
	for _, tt := range tests {
		got, err := inferColumns(tt.header)
		if err != nil {
			t.Fatalf("inferColumns(%q) error = %v", tt.header, err)
		}
		if got != tt.want {
			t.Errorf("inferColumns(%q) = %+v, want %+v", tt.header, got, tt.want)
		}
	}
}

func TestHTMLTableSource_Load(t *testing.T) {
	f := FetcherFunc(func(context.Context, string) ([]byte, error) { return []byte(samplePortal), nil })
	src := NewHTMLTableSource(f, "https://portal.example.com/compat", nil)
	ds, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Entries) != 2 {
		t.Errorf("len(Entries) = %d, want 2", len(ds.Entries))
	}
	if src.Name() != "html-table" {
		t.Errorf("Name() = %q", src.Name())
	}
}
