// Package fetch retrieves compatibility documents, repository listings and
// installer binaries over HTTP, with retries and an optional on-disk cache.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/leodido/ctecompat/internal/cache"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 15 * time.Second

// DefaultRetries is the number of retries after the first attempt.
const DefaultRetries = 2

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Fetcher reads local files and HTTP(S) URLs.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
	Retries uint64
	// Cache, when set, stores successful HTTP fetches and serves them when
	// the remote is unreachable.
	Cache *cache.Cache
	// Offline serves HTTP locations from the cache only.
	Offline bool
	Log     logrus.FieldLogger
}

// New returns a Fetcher with default timeout and retries.
func New(c *cache.Cache, log logrus.FieldLogger) *Fetcher {
	return &Fetcher{
		Client:  &http.Client{},
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Cache:   c,
		Log:     log,
	}
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return f.Log
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Fetch returns the document at location: a local path, a file:// URL or
// an HTTP(S) URL.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		path := strings.TrimPrefix(location, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		return data, nil
	}

	log := f.log().WithField("url", location)
	if f.Offline {
		return f.cached(location, errors.New("offline mode"))
	}

	data, err := f.get(ctx, location)
	if err != nil {
		log.WithError(err).Debug("fetch failed")
		return f.cached(location, err)
	}
	if f.Cache != nil {
		if err := f.Cache.Put(location, data); err != nil {
			log.WithError(err).Warn("cannot cache document")
		}
	}
	return data, nil
}

// cached serves location from the cache, reporting cause when it is absent.
func (f *Fetcher) cached(location string, cause error) ([]byte, error) {
	if f.Cache == nil {
		return nil, cause
	}
	doc, err := f.Cache.Get(location)
	if err != nil {
		return nil, errors.Wrapf(cause, "no cached copy of %s", location)
	}
	f.log().WithFields(logrus.Fields{
		"url":        location,
		"fetched_at": doc.FetchedAt.Format(time.RFC3339),
	}).Warn("using cached document")
	return doc.Body, nil
}

func (f *Fetcher) get(ctx context.Context, location string) ([]byte, error) {
	var data []byte
	op := func() error {
		// The timeout covers the whole attempt, body included.
		actx, cancel := context.WithTimeout(ctx, f.timeout())
		defer cancel()

		body, _, err := f.Open(actx, location)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Status < 500 && se.Status != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		defer body.Close()
		bs, err := io.ReadAll(body)
		if err != nil {
			return errors.Wrapf(err, "read %s", location)
		}
		data = bs
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.Retries), ctx)
	notify := func(err error, wait time.Duration) {
		f.log().WithError(err).WithField("retry_in", wait).Debug("retrying fetch")
	}
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			return nil, pe.Err
		}
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout <= 0 {
		return DefaultTimeout
	}
	return f.Timeout
}

// Open issues a GET and returns the response body and its length (-1 when
// unknown). The fetcher timeout bounds the wait for the response headers;
// the body is read under ctx. Closing the body releases the request.
func (f *Fetcher) Open(ctx context.Context, location string) (io.ReadCloser, int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		cancel()
		return nil, 0, errors.Wrapf(err, "new request %s", location)
	}

	timeout := f.timeout()
	timer := time.AfterFunc(timeout, cancel)
	resp, err := client.Do(req)
	if !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, 0, errors.Errorf("GET %s: no response within %s", location, timeout)
	}
	if err != nil {
		cancel()
		return nil, 0, errors.Wrapf(err, "GET %s", location)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, 0, &StatusError{URL: location, Status: resp.StatusCode}
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, resp.ContentLength, nil
}

// cancelBody cancels the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
