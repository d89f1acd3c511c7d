package ctecompat

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTableClass is the class of the compatibility table on the vendor portal.
const DefaultTableClass = "portal-table"

// HTMLTableSource scrapes compatibility entries from a server-rendered HTML
// table. Column positions are inferred from the header row.
type HTMLTableSource struct {
	Fetcher  Fetcher
	Location string
	// TableClass selects the table by class. The first table is used when
	// it is empty or no table has the class.
	TableClass string
	Log        logrus.FieldLogger
}

// NewHTMLTableSource creates a table source reading location through f.
func NewHTMLTableSource(f Fetcher, location string, log logrus.FieldLogger) *HTMLTableSource {
	return &HTMLTableSource{
		Fetcher:    f,
		Location:   location,
		TableClass: DefaultTableClass,
		Log:        loggerOrDiscard(log),
	}
}

// Name implements [Source].
func (s *HTMLTableSource) Name() string { return "html-table" }

// Load implements [Source].
func (s *HTMLTableSource) Load(ctx context.Context) (*Dataset, error) {
	log := loggerOrDiscard(s.Log).WithField("source", s.Name())
	log.WithField("location", s.Location).Debug("fetching compatibility page")

	data, err := fetch(ctx, s.Fetcher, s.Name(), s.Location)
	if err != nil {
		return nil, err
	}
	entries, err := parseHTMLTable(s.Name(), data, s.TableClass)
	if err != nil {
		return nil, err
	}
	log.WithField("entries", len(entries)).Debug("parsed compatibility table")
	return &Dataset{Entries: entries}, nil
}

// ParseHTMLTable extracts entries from the table with the given class, or
// from the first table when none has it.
func ParseHTMLTable(data []byte, class string) ([]Entry, error) {
	return parseHTMLTable("html-table", data, class)
}

func parseHTMLTable(name string, data []byte, class string) ([]Entry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Source: name, Reason: "parse HTML", Err: err}
	}

	table := findTable(doc, class)
	if table == nil && class != "" {
		table = findTable(doc, "")
	}
	if table == nil {
		if marker := spaMarker(doc); marker != "" {
			return nil, &DynamicContentError{Source: name, Marker: marker}
		}
		return nil, &ParseError{Source: name, Reason: "no table element"}
	}

	rows := tableRows(table)
	if len(rows) < 2 {
		return nil, &ParseError{Source: name, Reason: fmt.Sprintf("table has %d rows, want a header and at least one data row", len(rows))}
	}

	cols, err := inferColumns(rows[0])
	if err != nil {
		return nil, &ParseError{Source: name, Reason: "infer columns", Err: err}
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		e := Entry{
			OS:     cell(row, cols.os),
			Kernel: cell(row, cols.kernel),
			Start:  cell(row, cols.start),
			End:    cell(row, cols.end),
			Status: cell(row, cols.status),
		}
		if e.Kernel == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type columns struct {
	os, kernel, start, end, status int
}

// inferColumns maps header labels to column positions by whole words, so
// "OS Vendor" is not an end column. Unknown columns are -1; the kernel column
// is mandatory.
func inferColumns(header []string) (columns, error) {
	cols := columns{os: -1, kernel: -1, start: -1, end: -1, status: -1}
	for i, h := range header {
		words := headerWords(h)
		switch {
		case hasWord(words, "kernel") && cols.kernel < 0:
			cols.kernel = i
		case hasWord(words, "status") && cols.status < 0:
			cols.status = i
		case isOSHeader(words) && cols.os < 0:
			cols.os = i
		case hasWord(words, "start", "from", "min") && cols.start < 0:
			cols.start = i
		case hasWord(words, "end", "until", "max") && cols.end < 0:
			cols.end = i
		case hasWord(words, "version") && cols.start < 0:
			cols.start = i
		}
	}
	if cols.kernel < 0 {
		return cols, fmt.Errorf("no kernel column in header %q", header)
	}
	return cols, nil
}

func headerWords(h string) []string {
	return strings.FieldsFunc(strings.ToLower(h), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasWord(words []string, candidates ...string) bool {
	for _, c := range candidates {
		if slices.Contains(words, c) {
			return true
		}
	}
	return false
}

func isOSHeader(words []string) bool {
	if hasWord(words, "os", "distribution", "distro", "platform") {
		return true
	}
	return strings.Contains(strings.Join(words, " "), "operating system")
}
