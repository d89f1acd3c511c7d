package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c := &Cache{Config: &Config{Path: filepath.Join(t.TempDir(), "sub", "documents.db")}}
	require.NoError(t, c.Open())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissing(t *testing.T) {
	c := openTestCache(t)
	_, err := c.Get("https://example.com/matrix.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("a", []byte("first")))
	require.NoError(t, c.Put("a", []byte("second")))
	require.NoError(t, c.Put("b", []byte("other")))

	doc, err := c.Get("a")
	require.NoError(t, err)
	require.Equal(t, "a", doc.Location)
	require.Equal(t, []byte("second"), doc.Body)
	require.False(t, doc.FetchedAt.IsZero())

	docs, err := c.List()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		require.Nil(t, d.Body)
	}
}

func TestOpenWithoutConfig(t *testing.T) {
	require.Error(t, (&Cache{}).Open())
}
