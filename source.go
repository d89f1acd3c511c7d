package ctecompat

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Fetcher retrieves a raw document from a location (URL or path).
// Timeouts, retries and caching are the fetcher's concern.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f(ctx, location).
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// Source is a compatibility data origin.
//
// Built-in implementations:
//   - [JSONMatrixSource] (entries)
//   - [HTMLTableSource] (entries with status)
//   - [SupportStatusSource] (status overlay)
//
// Load returns a *[DataUnavailableError] when the document cannot be
// fetched. A document that parses to zero records is not an error.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Dataset, error)
}

// fetch wraps fetch failures in a *DataUnavailableError.
func fetch(ctx context.Context, f Fetcher, name, location string) ([]byte, error) {
	if f == nil {
		return nil, &DataUnavailableError{Source: name, Location: location, Err: errNoFetcher}
	}
	data, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, &DataUnavailableError{Source: name, Location: location, Err: err}
	}
	return data, nil
}

type sourceError string

func (e sourceError) Error() string { return string(e) }

const errNoFetcher = sourceError("no fetcher configured")

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discardLogger()
	}
	return l
}
