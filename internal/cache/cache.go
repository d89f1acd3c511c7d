// Package cache stores fetched compatibility documents on disk so checks
// can run offline and survive an unreachable vendor site.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// ErrNotFound is returned when a location has no cached document.
var ErrNotFound = errors.New("document not cached")

// Document is a cached raw document.
type Document struct {
	Location  string    `json:"location"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Config locates the cache database.
type Config struct {
	Path string
}

// Cache is a bbolt-backed document store keyed by location.
type Cache struct {
	Config *Config

	conn *bolt.DB
}

// Open opens (creating if needed) the cache database.
func (c *Cache) Open() error {
	if c.Config == nil {
		return errors.New("cache config is not set")
	}
	if err := os.MkdirAll(filepath.Dir(c.Config.Path), 0755); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(c.Config.Path))
	}
	db, err := bolt.Open(c.Config.Path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return errors.Wrapf(err, "open %s", c.Config.Path)
	}
	c.conn = db
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Get returns the cached document for location, or ErrNotFound.
func (c *Cache) Get(location string) (*Document, error) {
	var doc Document
	if err := c.conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(documentsBucket)
		if b == nil {
			return ErrNotFound
		}
		bs := b.Get([]byte(location))
		if bs == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(bs, &doc); err != nil {
			return errors.Wrapf(err, "unmarshal %s", location)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Put stores body as the document for location.
func (c *Cache) Put(location string, body []byte) error {
	return c.conn.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(documentsBucket)
		if err != nil {
			return errors.Wrapf(err, "create bucket:%q if not exists", documentsBucket)
		}
		bs, err := json.Marshal(Document{Location: location, Body: body, FetchedAt: time.Now().UTC()})
		if err != nil {
			return errors.Wrapf(err, "marshal %s", location)
		}
		if err := b.Put([]byte(location), bs); err != nil {
			return errors.Wrapf(err, "put %s", location)
		}
		return nil
	})
}

// List returns the cached documents without their bodies.
func (c *Cache) List() ([]Document, error) {
	var docs []Document
	err := c.conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(documentsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.WithStack(err)
			}
			doc.Body = nil
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}
