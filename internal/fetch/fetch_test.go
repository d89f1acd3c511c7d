package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leodido/ctecompat/internal/cache"
)

func newTestFetcher(t *testing.T, withCache bool) *Fetcher {
	t.Helper()
	var c *cache.Cache
	if withCache {
		c = &cache.Cache{Config: &cache.Config{Path: filepath.Join(t.TempDir(), "documents.db")}}
		require.NoError(t, c.Open())
		t.Cleanup(func() { c.Close() })
	}
	f := New(c, nil)
	f.Timeout = 2 * time.Second
	return f
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"MAPPING":[]}`), 0600))
	f := newTestFetcher(t, false)

	for _, loc := range []string{path, "file://" + path} {
		data, err := f.Fetch(context.Background(), loc)
		require.NoError(t, err)
		require.Equal(t, `{"MAPPING":[]}`, string(data))
	}

	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, false)
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, false)
	_, err := f.Fetch(context.Background(), srv.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Status)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchFallsBackToCache(t *testing.T) {
	healthy := int32(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&healthy) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("matrix v1"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, true)
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "matrix v1", string(data))

	atomic.StoreInt32(&healthy, 0)
	data, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "matrix v1", string(data))
}

// stallingServer writes head, then blocks until the client goes away.
func stallingServer(t *testing.T, head string, flushHeaders bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if flushHeaders {
			w.Write([]byte(head))
			w.(http.Flusher).Flush()
		}
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTimeoutCoversBody(t *testing.T) {
	srv := stallingServer(t, `{"MAPPING":`, true)
	f := newTestFetcher(t, false)
	f.Timeout = 200 * time.Millisecond
	f.Retries = 0

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenTimeoutWaitingForHeaders(t *testing.T) {
	srv := stallingServer(t, "", false)
	f := newTestFetcher(t, false)
	f.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, _, err := f.Open(context.Background(), srv.URL)
	require.ErrorContains(t, err, "no response within")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenCloseReleasesRequest(t *testing.T) {
	srv := stallingServer(t, "partial", true)
	f := newTestFetcher(t, false)

	body, _, err := f.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	buf := make([]byte, len("partial"))
	_, err = io.ReadFull(body, buf)
	require.NoError(t, err)
	require.Equal(t, "partial", string(buf))

	require.NoError(t, body.Close())
	_, err = body.Read(buf)
	require.Error(t, err)
}

func TestFetchOffline(t *testing.T) {
	f := newTestFetcher(t, true)
	f.Offline = true

	_, err := f.Fetch(context.Background(), "https://example.invalid/matrix.json")
	require.Error(t, err)

	require.NoError(t, f.Cache.Put("https://example.invalid/matrix.json", []byte("cached")))
	data, err := f.Fetch(context.Background(), "https://example.invalid/matrix.json")
	require.NoError(t, err)
	require.Equal(t, "cached", string(data))
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://packages.example.com/matrix.json", true},
		{"http://10.0.0.1/x", true},
		{"file:///tmp/x.json", false},
		{"./data/cte_release_status.pdf", false},
		{"/etc/hosts", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.location); got != tt.want {
			t.Errorf("IsRemote(%q) = %v, want %v", tt.location, got, tt.want)
		}
	}
}
