package ctecompat

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// PageExtractor turns a raw release-status document into the text of its pages.
type PageExtractor interface {
	Pages(doc []byte) ([]string, error)
}

// PageExtractorFunc adapts a function to [PageExtractor].
type PageExtractorFunc func(doc []byte) ([]string, error)

// Pages calls f(doc).
func (f PageExtractorFunc) Pages(doc []byte) ([]string, error) { return f(doc) }

// PlainText treats the document as text with pages separated by form feeds.
var PlainText PageExtractor = PageExtractorFunc(func(doc []byte) ([]string, error) {
	return strings.Split(string(doc), "\f"), nil
})

// statusLineRe matches "<MAJOR.MINOR.PATCH> <build-id> <status words>".
var statusLineRe = regexp.MustCompile(`^(\d+\.\d+\.\d+)\s+[\dA-Za-z-]+\s+([A-Za-z\s]+)$`)

// SupportStatusSource loads the agent release support status overlay from a
// release-status document (a PDF, or text).
type SupportStatusSource struct {
	Fetcher   Fetcher
	Location  string
	Extractor PageExtractor
	Log       logrus.FieldLogger
}

// NewSupportStatusSource creates a status source reading location through f.
// A nil extractor reads the document as [PlainText].
func NewSupportStatusSource(f Fetcher, location string, extractor PageExtractor, log logrus.FieldLogger) *SupportStatusSource {
	if extractor == nil {
		extractor = PlainText
	}
	return &SupportStatusSource{Fetcher: f, Location: location, Extractor: extractor, Log: loggerOrDiscard(log)}
}

// Name implements [Source].
func (s *SupportStatusSource) Name() string { return "support-status" }

// Load implements [Source].
func (s *SupportStatusSource) Load(ctx context.Context) (*Dataset, error) {
	log := loggerOrDiscard(s.Log).WithField("source", s.Name())
	log.WithField("location", s.Location).Debug("fetching release support status")

	data, err := fetch(ctx, s.Fetcher, s.Name(), s.Location)
	if err != nil {
		return nil, err
	}
	extractor := s.Extractor
	if extractor == nil {
		extractor = PlainText
	}
	pages, err := extractor.Pages(data)
	if err != nil {
		return nil, &ParseError{Source: s.Name(), Reason: "extract pages", Err: err}
	}
	status := ParseSupportStatus(pages)
	log.WithField("versions", len(status)).Debug("parsed release support status")
	return &Dataset{Status: status}, nil
}

// ParseSupportStatus scans pages line by line. Lines not matching the
// release line pattern (headers, footers) are skipped; a later line for the
// same version wins.
func ParseSupportStatus(pages []string) SupportStatus {
	status := make(SupportStatus)
	for _, page := range pages {
		// Lines have no length limit: extracted rows can be arbitrarily long.
		for _, line := range strings.Split(page, "\n") {
			m := statusLineRe.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			status[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		}
	}
	return status
}
