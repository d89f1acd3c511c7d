package ctecompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// JSONMatrixSource loads the vendor compatibility matrix, a document of shape
//
//	{"MAPPING": [{"OS": "RHEL 8", "KERNEL": [{"NUM": "...", "START": "...", "END": "..."}]}]}
type JSONMatrixSource struct {
	Fetcher  Fetcher
	Location string
	Log      logrus.FieldLogger
}

// NewJSONMatrixSource creates a matrix source reading location through f.
func NewJSONMatrixSource(f Fetcher, location string, log logrus.FieldLogger) *JSONMatrixSource {
	return &JSONMatrixSource{Fetcher: f, Location: location, Log: loggerOrDiscard(log)}
}

// Name implements [Source].
func (s *JSONMatrixSource) Name() string { return "json-matrix" }

// Load implements [Source].
func (s *JSONMatrixSource) Load(ctx context.Context) (*Dataset, error) {
	log := loggerOrDiscard(s.Log).WithField("source", s.Name())
	log.WithField("location", s.Location).Debug("fetching compatibility matrix")

	data, err := fetch(ctx, s.Fetcher, s.Name(), s.Location)
	if err != nil {
		return nil, err
	}
	entries, err := parseMatrix(s.Name(), data)
	if err != nil {
		return nil, err
	}
	log.WithField("entries", len(entries)).Debug("parsed compatibility matrix")
	return &Dataset{Entries: entries}, nil
}

// ParseMatrix parses a compatibility matrix document.
func ParseMatrix(data []byte) ([]Entry, error) {
	return parseMatrix("json-matrix", data)
}

type matrixDocument struct {
	Mapping *[]matrixOS `json:"MAPPING"`
}

type matrixOS struct {
	OS     *string        `json:"OS"`
	Kernel []matrixKernel `json:"KERNEL"`
}

type matrixKernel struct {
	Num   *string `json:"NUM"`
	Start *string `json:"START"`
	End   *string `json:"END"`
}

func parseMatrix(name string, data []byte) ([]Entry, error) {
	var doc matrixDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Source: name, Reason: "decode matrix", Err: err}
	}
	if doc.Mapping == nil {
		return nil, &ParseError{Source: name, Reason: `missing "MAPPING"`}
	}

	entries := make([]Entry, 0)
	for i, osEntry := range *doc.Mapping {
		if osEntry.OS == nil {
			return nil, &ParseError{Source: name, Reason: fmt.Sprintf(`MAPPING[%d]: missing "OS"`, i)}
		}
		for j, k := range osEntry.Kernel {
			switch {
			case k.Num == nil:
				return nil, &ParseError{Source: name, Reason: fmt.Sprintf(`MAPPING[%d].KERNEL[%d]: missing "NUM"`, i, j)}
			case k.Start == nil:
				return nil, &ParseError{Source: name, Reason: fmt.Sprintf(`MAPPING[%d].KERNEL[%d]: missing "START"`, i, j)}
			case k.End == nil:
				return nil, &ParseError{Source: name, Reason: fmt.Sprintf(`MAPPING[%d].KERNEL[%d]: missing "END"`, i, j)}
			}
			entries = append(entries, Entry{
				OS:     *osEntry.OS,
				Kernel: *k.Num,
				Start:  *k.Start,
				End:    *k.End,
			})
		}
	}
	return entries, nil
}
