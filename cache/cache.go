// Package cache provides a local content cache backed by Badger.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// DefaultTTL is how long fetched content stays valid.
const DefaultTTL = 15 * time.Minute

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: not found")

// Entry is a cached capture payload.
type Entry struct {
	Data      []byte    `json:"data"`
	MIME      string    `json:"mime"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache wraps a Badger database. It is safe for concurrent use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache under dir. An empty dir places it
// in the user cache directory. Zero ttl uses DefaultTTL.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("get user cache dir: %w", err)
		}
		dir = filepath.Join(base, "omifi", "cache")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close flushes and closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// GenerateKey builds the cache key for a stored capture. kind is
// "screenshot" or "clipboard"; filepath is the opaque server id.
func GenerateKey(kind, filepath string) string {
	sum := sha256.Sum256([]byte(kind + "\x00" + filepath))
	return "content/" + hex.EncodeToString(sum[:])
}

// GetContent returns a cached capture payload, or ErrNotFound when the
// key is absent or has expired.
func (c *Cache) GetContent(key string) (Entry, error) {
	var e Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get content: %w", err)
	}
	return e, nil
}

// SetContent stores a capture payload under key with the cache TTL.
func (c *Cache) SetContent(key string, data []byte, mime string) error {
	e := Entry{Data: data, MIME: mime, FetchedAt: time.Now()}
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), val).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("set content: %w", err)
	}
	return nil
}

// Set stores a raw value without expiry. Used for data that must
// survive restarts, like training samples.
func (c *Cache) Set(key string, val []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

// Get returns a raw value, or ErrNotFound.
func (c *Cache) Get(key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return out, nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (c *Cache) Delete(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Keys returns all keys under prefix.
func (c *Cache) Keys(prefix string) ([]string, error) {
	var keys []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}
