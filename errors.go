package ctecompat

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors through errors.Is.
var (
	ErrDataUnavailable     = errors.New("compatibility data unavailable")
	ErrParse               = errors.New("malformed compatibility document")
	ErrDynamicContent      = errors.New("client-rendered page without table")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrArtifactNotFound    = errors.New("artifact not found")
)

// DataUnavailableError is returned when a source document cannot be fetched.
type DataUnavailableError struct {
	Source   string
	Location string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: fetch %s: %v", e.Source, e.Location, e.Err)
	}
	return fmt.Sprintf("source %s: fetch %s: unavailable", e.Source, e.Location)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// ParseError is returned when a fetched document has an unexpected shape.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// DynamicContentError is returned when an HTML page is a client-rendered
// application shell. The data must be verified manually or taken from
// another source.
type DynamicContentError struct {
	Source string
	// Marker is the mount element that identified the shell.
	Marker string
}

func (e *DynamicContentError) Error() string {
	return fmt.Sprintf("source %s: page is rendered client-side (%s) and has no table; verify compatibility manually", e.Source, e.Marker)
}

func (e *DynamicContentError) Is(target error) bool { return target == ErrDynamicContent }

// UnsupportedPlatformError is returned when an OS descriptor maps to no
// platform code.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no installer platform for OS %q (known platforms: %s)", e.OS, strings.Join(PlatformCodes(), ", "))
}

func (e *UnsupportedPlatformError) Is(target error) bool { return target == ErrUnsupportedPlatform }

// ArtifactNotFoundError is returned when a repository listing has no
// installer binary.
type ArtifactNotFoundError struct {
	Platform string
	Location string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("no installer binary for %s in %s", e.Platform, e.Location)
}

func (e *ArtifactNotFoundError) Is(target error) bool { return target == ErrArtifactNotFound }
