// Package pdftext extracts the plain text of PDF release-status documents.
package pdftext

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	"github.com/leodido/ctecompat"
)

var pdfMagic = []byte("%PDF-")

// Auto extracts PDF documents with [Extractor] and anything else as
// form-feed separated text.
var Auto = ctecompat.PageExtractorFunc(func(doc []byte) ([]string, error) {
	if bytes.HasPrefix(bytes.TrimLeft(doc, " \t\r\n"), pdfMagic) {
		return Extractor{}.Pages(doc)
	}
	return ctecompat.PlainText.Pages(doc)
})

// Extractor reads PDF documents page by page.
type Extractor struct{}

// Pages returns the text of each page, in order, one line per text row
// (runs sharing a baseline, joined left to right). Pages without a content
// stream yield an empty string.
func (Extractor) Pages(doc []byte) (pages []string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, errors.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}

	pages = make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, errors.Wrapf(err, "page %d", i)
		}
		pages = append(pages, joinRows(rows))
	}
	return pages, nil
}

// joinRows renders rows top to bottom, separating runs with single spaces.
func joinRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			words = append(words, t.S)
		}
		if line := strings.Join(strings.Fields(strings.Join(words, " ")), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
